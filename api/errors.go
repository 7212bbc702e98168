package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondServiceError logs the full cause and sends only the client message
func respondServiceError(w http.ResponseWriter, logMessageBuilder *strings.Builder, err error) {
	utils.AddToLogMessage(logMessageBuilder, err.Error())
	utils.RespondJSON(w, statusFor(service.KindOf(err)), map[string]string{"error": service.MessageOf(err)})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// parseID reads a hex object id; empty input yields the nil id
func parseID(raw, what string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, service.Validation(fmt.Sprintf("Invalid %s", what))
	}
	return id, nil
}
