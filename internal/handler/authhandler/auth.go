// Package authhandler wires the dashboard login endpoint. Named
// authhandler, not auth, to avoid colliding with internal/service/auth.
package authhandler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/auth"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

func Setup(svc *auth.Service) router.Setup {
	return func(r *router.Router) {
		r.POST("/login", loginHandler(svc))
	}
}

func loginHandler(svc *auth.Service) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
		}

		token, err := svc.Login(body.Username, body.Password)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrAuthFailed, err)
		}

		return w.JSON(map[string]string{"token": token})
	}
}
