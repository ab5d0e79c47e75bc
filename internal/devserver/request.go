package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"finstudent/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads r's body into v. The returned message is suitable for a
// 400 detail.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("JSON parse error - empty body")
		}
		return fmt.Errorf("JSON parse error - %v", err)
	}
	return nil
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// parseTransactionQuery reads the list filters. Bad dates are reported per
// field.
func parseTransactionQuery(r *http.Request) (TransactionQuery, map[string][]string) {
	q := r.URL.Query()
	out := TransactionQuery{
		Type:     core.TransactionType(strings.TrimSpace(q.Get("type"))),
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	errs := map[string][]string{}
	if out.Type != "" && !out.Type.IsValid() {
		errs["type"] = []string{fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", out.Type)}
	}
	for field, dst := range map[string]*core.Date{"start_date": &out.From, "end_date": &out.To} {
		if v := strings.TrimSpace(q.Get(field)); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				errs[field] = []string{"Enter a valid date."}
				continue
			}
			*dst = d
		}
	}
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// validationErrors maps a domain validation failure to field errors.
func validationErrors(err error) map[string][]string {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return map[string][]string{ve.Field: {sentence(ve.Err.Error())}}
	}
	return map[string][]string{"non_field_errors": {sentence(err.Error())}}
}

// sentence capitalizes msg and ends it with a period.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
