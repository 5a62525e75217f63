package app

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token string `json:"token"`
}

// ExportFormat is a supported calendar download format
type ExportFormat string

const (
	FormatICS  ExportFormat = "ics"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)
