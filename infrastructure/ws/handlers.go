package ws

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"social-chat/errors"
)

// handleCreateGroup creates a group owned by the caller, who becomes its
// sole initial member. A taken name answers 409.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
		return
	}

	group, err := s.groups.Create(req.Name, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

// handleMyGroups lists the caller's groups in membership order.
func (s *Server) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	groups, err := s.groups.ListFor(identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponses(groups))
}

// handleHistory backfills a room's messages in append order. Without a group
// parameter the general room is read.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	groupID, err := groupParam(r.URL.Query().Get("group"))
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := s.chat.History(groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessagePayloads(messages))
}

// handleAttachment records an attachment message. Upload, storage, and MIME
// validation happened in the external upload service; only the resulting
// opaque URL travels through here, under the same membership check as text.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req attachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
		return
	}

	msg, err := s.chat.PostAttachment(r.Context(), identity, req.URL, req.Group)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayload(msg))
}

func groupParam(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: bad group id %q", errors.ErrInvalidRequest, raw)
	}
	return &parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.MapToHTTPStatus(err), map[string]string{"error": err.Error()})
}
