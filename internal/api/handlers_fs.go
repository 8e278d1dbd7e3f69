package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
	"github.com/sachima/sachima/internal/reply"
)

// ─── Reads ──────────────────────────────────────────────────────────────────

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")

	f, info, err := s.ws.Open(rel)
	if err != nil {
		recordOp("download", err)
		reply.WriteStatus(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	n, err := io.Copy(w, f)
	metrics.RecordDownload(n)
	if err != nil {
		// headers are already out; the client sees a short body
		recordOp("download", reply.Internal(err))
		logging.WithContext(r.Context()).Warn("download interrupted",
			zap.String("path", rel),
			zap.Int64("written", n),
			zap.Error(err))
		return
	}
	recordOp("download", nil)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	dir, err := s.ws.List(r.PathValue("path"))
	recordOp("list", err)
	if err != nil {
		reply.WriteError(w, r, err)
		return
	}
	reply.WriteData(w, dir)
}

// ─── Writes ─────────────────────────────────────────────────────────────────

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	parent := r.PathValue("path")

	n, err := s.upload(w, r, parent)
	recordOp("upload", err)
	if err != nil {
		reply.WriteError(w, r, err)
		return
	}

	metrics.RecordUpload(n)
	logging.WithContext(r.Context()).Info("file uploaded",
		zap.String("parent", parent),
		zap.Int64("size", n))
	reply.WriteData(w, nil)
}

// upload streams the "file" part of a multipart body into parent. Errors
// are business errors in the documented precondition order.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, parent string) (int64, error) {
	if err := s.ws.CheckParent(parent); err != nil {
		return 0, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxUpload))
	mr, err := r.MultipartReader()
	if err != nil {
		return 0, reply.ErrFileExpected
	}
	part, err := filePart(mr)
	if err != nil {
		if isTooLarge(err) {
			return 0, reply.ResourceTooLarge(s.maxUpload)
		}
		return 0, reply.ErrFileExpected
	}
	defer part.Close()

	n, err := s.ws.Upload(parent, part.FileName(), part)
	if err != nil && isTooLarge(err) {
		return n, reply.ResourceTooLarge(s.maxUpload)
	}
	return n, err
}

// filePart skips ahead to the part named "file".
func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, reply.ErrFileExpected
			}
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	name := r.URL.Query().Get("name")

	err := s.ws.Rename(rel, name)
	recordOp("rename", err)
	if err != nil {
		reply.WriteError(w, r, err)
		return
	}

	logging.WithContext(r.Context()).Info("entry renamed",
		zap.String("path", rel),
		zap.String("name", name))
	reply.WriteData(w, nil)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")

	err := s.ws.Remove(rel)
	recordOp("remove", err)
	if err != nil {
		reply.WriteError(w, r, err)
		return
	}

	logging.WithContext(r.Context()).Info("entry removed", zap.String("path", rel))
	reply.WriteData(w, nil)
}

func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")

	err := s.ws.MakeDir(rel)
	recordOp("mkdir", err)
	if err != nil {
		reply.WriteError(w, r, err)
		return
	}

	logging.WithContext(r.Context()).Info("directory created", zap.String("path", rel))
	reply.WriteData(w, nil)
}
