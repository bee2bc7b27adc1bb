// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/form019-finder/internal/export"
)

//go:embed templates/*
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/base.html", "templates/index.html"))

// indexPage is the data rendered into the search form
type indexPage struct {
	BaseDir      string
	Units        []string
	PartTypes    []string
	PartType     string
	Operators    []string
	DownloadName string
}

// HandleIndex serves the search form
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	settings := s.currentSettings()
	data := indexPage{
		BaseDir:      settings.BaseDir,
		Units:        settings.UnitFolders,
		PartTypes:    settings.PartTypes,
		Operators:    []string{">=", "<="},
		DownloadName: export.CSVFileName,
	}
	if len(settings.PartTypes) > 0 {
		data.PartType = settings.PartTypes[0]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.ExecuteTemplate(w, "base.html", data); err != nil {
		s.log.Errorf("Failed to execute template index.html: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
