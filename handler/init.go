package handler

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/osteele/liquid"
)

var (
	//go:embed template/*
	content embed.FS

	invitationTmpl *liquid.Template
	surveyPageTmpl *template.Template
	closedPageTmpl *template.Template
)

func init() {
	b, err := content.ReadFile("template/invitation.liquid")
	if err != nil {
		panic(fmt.Errorf("read template invitation.liquid: %v", err))
	}

	invitationTmpl, err = liquid.NewEngine().ParseString(string(b))
	if err != nil {
		panic(fmt.Errorf("parse template invitation.liquid: %v", err))
	}

	b, err = content.ReadFile("template/survey_page.html")
	if err != nil {
		panic(fmt.Errorf("read template survey_page.html: %v", err))
	}

	surveyPageTmpl, err = template.New("survey_page").Parse(string(b))
	if err != nil {
		panic(fmt.Errorf("parse template survey_page.html: %v", err))
	}

	b, err = content.ReadFile("template/survey_closed.html")
	if err != nil {
		panic(fmt.Errorf("read template survey_closed.html: %v", err))
	}

	closedPageTmpl, err = template.New("survey_closed").Parse(string(b))
	if err != nil {
		panic(fmt.Errorf("parse template survey_closed.html: %v", err))
	}
}
