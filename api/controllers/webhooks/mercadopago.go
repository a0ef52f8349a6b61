package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/atelierdoce/storefront-backend/api/responses"
	mercadopagowebhook "github.com/atelierdoce/storefront-backend/internal/webhooks/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

const webhookBodyReadLimit int64 = 1 << 20

type notificationBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook ingests gateway payment notifications. The contract is
// plain text: 200 acknowledges (including unrecognized notifications, which
// the gateway must not retry), 500 asks the gateway to redeliver, anything
// but POST is 405.
func MercadoPagoWebhook(svc *mercadopagowebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			responses.WriteText(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		ctx := r.Context()

		var body notificationBody
		if raw, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyReadLimit)); err == nil && len(raw) > 0 {
			// A malformed body is not an error: the query string may still
			// identify the payment.
			_ = json.Unmarshal(raw, &body)
		}

		notification := mercadopagowebhook.Notification{
			Type:    body.Type,
			DataID:  body.Data.ID,
			Topic:   r.URL.Query().Get("topic"),
			QueryID: r.URL.Query().Get("id"),
		}

		result, err := svc.Process(ctx, notification)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "webhook processing failed", err)
			}
			responses.WriteText(w, http.StatusInternalServerError, "error")
			return
		}

		if logg != nil {
			ctx = logg.WithField(ctx, "outcome", string(result.Outcome))
			logg.Info(ctx, "webhook acknowledged")
		}
		responses.WriteText(w, http.StatusOK, "ok")
	}
}
