package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectOffboardingFmt = "%s entered offboarding"
	subjectCompletedFmt   = "%s completed their program"
	subjectStageChangeFmt = "%s moved to %s"
)

type baseEmailData struct {
	Title   string
	Heading string
}

type stageNoticeEmailData struct {
	baseEmailData
	ClientName string
	FromState  string
	ToState    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
