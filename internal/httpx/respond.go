package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/ariefcatur/go-inventory-orders.git/internal/catalog"
	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type envelope struct {
	Status   bool           `json:"status"`
	Message  string         `json:"message"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

type meta map[string]any

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respond writes the envelope. Status follows the HTTP code and the code is
// echoed in the metadata.
func respond(w http.ResponseWriter, code int, message string, data any, md meta) {
	if md == nil {
		md = meta{}
	}
	md["code"] = code
	writeJSON(w, code, envelope{Status: code < 400, Message: message, Data: data, Metadata: md})
}

// fieldErrors maps a request field to its messages.
type fieldErrors map[string][]string

type validationError struct{ fields fieldErrors }

func (e *validationError) Error() string { return "the given data was invalid" }

func invalid(field, msg string) error {
	return &validationError{fields: fieldErrors{field: {msg}}}
}

var notFound = []error{
	orders.ErrOrderNotFound,
	inventory.ErrProductNotFound,
	catalog.ErrCategoryNotFound,
	catalog.ErrSupplierNotFound,
	auth.ErrUserNotFound,
}

var unauthorized = []error{
	auth.ErrUnauthorized,
	auth.ErrInvalidCredentials,
	auth.ErrTokenNotFound,
}

// rejectedInput are domain errors that describe a bad request field.
var rejectedInput = map[error]string{
	inventory.ErrDuplicateProduct: "name",
	inventory.ErrUnknownCategory:  "category_id",
	inventory.ErrUnknownSupplier:  "supplier_id",
	catalog.ErrDuplicateCategory:  "name",
	catalog.ErrDuplicateSupplier:  "code",
	auth.ErrDuplicateEmail:        "email",
	auth.ErrPasswordTooLong:       "password",
	orders.ErrInvalidQuantity:     "quantity",
	orders.ErrTotalOverflow:       "quantity",
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// fail maps err onto the error envelope. Unknown errors surface their
// message with a 500.
func fail(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		respond(w, http.StatusUnprocessableEntity, ve.Error(), nil, meta{"errors": ve.fields})
		return
	}
	for target, field := range rejectedInput {
		if errors.Is(err, target) {
			respond(w, http.StatusUnprocessableEntity, target.Error(), nil, meta{"errors": fieldErrors{field: {target.Error()}}})
			return
		}
	}
	switch {
	case isAny(err, notFound):
		respond(w, http.StatusNotFound, errors.Cause(err).Error(), nil, nil)
	case isAny(err, unauthorized):
		respond(w, http.StatusUnauthorized, "Unauthorized", nil, nil)
	default:
		log.WithError(err).Error("request failed")
		respond(w, http.StatusInternalServerError, err.Error(), nil, nil)
	}
}
