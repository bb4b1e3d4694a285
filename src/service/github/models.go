package github

// TreeEntry is one entry of a directory listing
type TreeEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // file | dir
	SHA  string `json:"sha"`
}

// FileContent is a fetched file with its blob SHA. Content is already
// decoded from the wire encoding.
type FileContent struct {
	Path    string
	Content string
	SHA     string
}

// PullRequest identifies an opened pull request
type PullRequest struct {
	URL    string `json:"html_url"`
	Number int    `json:"number"`
}

// contentResponse is the wire shape of the contents endpoint for a file
type contentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// refResponse is the wire shape of the git ref endpoint
type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// createRefRequest creates a new branch ref
type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// commitFileRequest is the wire shape of the contents PUT endpoint
type commitFileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// createPullRequest is the wire shape of the pulls POST endpoint
type createPullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}
