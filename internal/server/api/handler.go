package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/timex"
	"github.com/gorilla/mux"
)

func (s *HTTPServer) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

func (s *HTTPServer) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, []byte(req.Password))
	if err != nil {
		s.fail(w, r, "register", err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, registerResponse{UserID: user.ID})
}

func (s *HTTPServer) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, []byte(req.Password))
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, UserID: sess.UserID})
}

func (s *HTTPServer) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.fail(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, UserID: sess.UserID})
}

func (s *HTTPServer) PushRecords(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	collection := mux.Vars(r)["collection"]
	res, err := s.records.Push(r.Context(), userIDFrom(r.Context()), collection, req.Rows)
	if err != nil {
		s.fail(w, r, "push", err)
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{Written: res.Written, Skipped: res.Skipped})
}

func (s *HTTPServer) PullRecords(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := timex.ParseInstant(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since: "+err.Error())
			return
		}
		since = &t
	}

	collection := mux.Vars(r)["collection"]
	rows, err := s.records.Pull(r.Context(), userIDFrom(r.Context()), collection, since)
	if err != nil {
		s.fail(w, r, "pull", err)
		return
	}
	writeJSON(w, http.StatusOK, pullResponse{Rows: rows})
}

func (s *HTTPServer) PresignBackupPut(w http.ResponseWriter, r *http.Request) {
	url, err := s.backups.PresignPut(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "presign put", err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{URL: url})
}

func (s *HTTPServer) PresignBackupGet(w http.ResponseWriter, r *http.Request) {
	url, err := s.backups.PresignGet(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "presign get", err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{URL: url})
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), op+" failed", "error", err)
	} else if !errors.Is(err, common.ErrorUnauthorized) {
		s.logger.Debug(r.Context(), op+" rejected", "error", err)
	}
	writeError(w, status, msg)
}
