package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/oncoreport-cli/internal/config"
	"github.com/KaramelBytes/oncoreport-cli/internal/pipeline"
	"github.com/KaramelBytes/oncoreport-cli/internal/utils"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP endpoint that analyzes uploaded CSV datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			c.ListenAddr = serveAddr
		}
		srv := newServer(c, slog.Default())
		fmt.Printf("✓ Listening on %s\n", c.ListenAddr)
		return http.ListenAndServe(c.ListenAddr, srv)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

// server runs one analysis pipeline per uploaded dataset, namespacing each
// run's artifacts under a fresh run ID.
type server struct {
	cfg *cfgpkg.Global
	log *slog.Logger
	mux *http.ServeMux
}

func newServer(cfg *cfgpkg.Global, log *slog.Logger) *server {
	s := &server{cfg: cfg, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /reports", s.handleListReports)
	s.mux.HandleFunc("GET /download/", s.handleDownload)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type analyzeResponse struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
	RunID     string   `json:"run_id,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Files     []string `json:"files,omitempty"`
	Charts    []string `json:"charts,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Error: "no file uploaded"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Error: "please upload a CSV file"})
		return
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.cfg.ReportDir, runID)
	if err := utils.EnsureDir(runDir); err != nil {
		s.serverError(w, runID, "create run dir", err)
		return
	}

	uploadPath := filepath.Join(runDir, "upload.csv")
	dst, err := os.Create(uploadPath)
	if err != nil {
		s.serverError(w, runID, "save upload", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.serverError(w, runID, "save upload", err)
		return
	}
	dst.Close()

	rc := *s.cfg
	rc.DataPath = uploadPath
	rc.ReportDir = runDir

	s.log.Info("analysis started", "run_id", runID, "upload", header.Filename)
	start := time.Now()
	runner := pipeline.NewRunner(&rc, s.log.With("run_id", runID))
	art, err := runner.Run()
	if err != nil {
		s.log.Warn("analysis failed", "run_id", runID, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, analyzeResponse{Error: err.Error(), RunID: runID})
		return
	}
	s.log.Info("analysis finished", "run_id", runID, "duration", time.Since(start))

	files := []string{art.MarkdownPath, art.HTMLPath, art.JSONPath}
	files = append(files, art.ChartPaths...)
	rel := make([]string, 0, len(files))
	for _, f := range files {
		rel = append(rel, filepath.Join(runID, filepath.Base(f)))
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:   true,
		RunID:     runID,
		Timestamp: art.Timestamp,
		Files:     rel,
		Charts:    art.Charts,
	})
}

func (s *server) serverError(w http.ResponseWriter, runID, action string, err error) {
	s.log.Error("request failed", "run_id", runID, "action", action, "error", err)
	writeJSON(w, http.StatusInternalServerError, analyzeResponse{Error: "internal error", RunID: runID})
}

type reportEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (s *server) handleListReports(w http.ResponseWriter, r *http.Request) {
	var reports []reportEntry
	root := s.cfg.ReportDir
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		name, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		reports = append(reports, reportEntry{Name: name, Size: info.Size(), Modified: info.ModTime()})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		s.serverError(w, "", "list reports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reports": reports})
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if name == "" || strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Error: "invalid file name"})
		return
	}
	path := filepath.Join(s.cfg.ReportDir, filepath.FromSlash(name))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, analyzeResponse{Error: "file not found"})
		return
	}
	http.ServeFile(w, r, path)
}
