package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"verigate/internal/validate"
	"verigate/internal/verification"

	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

type Submitter interface {
	Submit(ctx context.Context, sub verification.Submission) (verification.Verdict, error)
}

type VerifyHandler struct {
	svc    Submitter
	logger *zap.Logger
}

func NewVerifyHandler(svc Submitter, logger *zap.Logger) *VerifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerifyHandler{svc: svc, logger: logger}
}

func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var sub verification.Submission
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrGuildNotFound):
			writeError(w, http.StatusBadRequest, "guild not found")
		case errors.Is(err, verification.ErrMemberNotFound):
			writeError(w, http.StatusBadRequest, "member not found")
		default:
			h.logger.Error("verification submit failed", zap.String("user_id", sub.UserID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if verdict.Accepted() {
		writeJSON(w, http.StatusOK, VerifyEnvelope{Status: "success"})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Status: "failed", Reason: verdict.Outcome.ReasonCode()})
}
