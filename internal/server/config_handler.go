// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import "net/http"

// ConfigResponse is the form configuration currently in effect
type ConfigResponse struct {
	BaseDir     string   `json:"base_dir"`
	UnitFolders []string `json:"unit_folders"`
	PartTypes   []string `json:"part_types"`
}

// HandleGetConfig returns the search form defaults, reflecting config reloads
func (s *Server) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	settings := s.currentSettings()
	writeJSON(w, http.StatusOK, ConfigResponse{
		BaseDir:     settings.BaseDir,
		UnitFolders: settings.UnitFolders,
		PartTypes:   settings.PartTypes,
	})
}
