package transcript

import (
	"html/template"
)

// pageData fills the document header
type pageData struct {
	Title      string
	Stylesheet string
}

// messageData is one rendered message block
type messageData struct {
	Class     string
	Timestamp string
	Sender    string
	HasBody   bool
	Body      template.HTML
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`
{{- define "header" -}}
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.Stylesheet}}">
</head>
<body>
<div class="messages">
{{end}}

{{- define "message" -}}
<div class="message {{.Class}}">
<div class="message-meta"><span class="message-time">{{.Timestamp}}</span> <span class="message-sender">{{.Sender}}</span></div>
{{- if .HasBody}}
<div class="message-body">{{.Body}}</div>
{{- end}}
</div>
{{end}}

{{- define "footer" -}}
</div>
</body>
</html>
{{end}}`))
