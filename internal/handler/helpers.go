package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/NicolasBispo/personal-finances-app/internal/ledger"
	"github.com/NicolasBispo/personal-finances-app/internal/models"
	"github.com/NicolasBispo/personal-finances-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// currentUser pulls the authenticated user out of the gin context.
// Writes a 401 and returns false when the auth middleware did not run.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, ledger.KindAuth, "authentication required")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, ledger.KindAuth, "authentication required")
		return nil, false
	}
	return user, true
}

// bindStrict decodes the JSON body rejecting unknown fields, then runs the
// regular binding validators. Clients historically sent loosely typed
// payloads; the strict decode surfaces those at the boundary as 400s.
func bindStrict(c *gin.Context, obj any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}

// parseDate parses a wire date (YYYY-MM-DD) into midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(ledger.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
