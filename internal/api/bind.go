package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"roi-workers/internal/models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const maxBodyBytes = 64 << 10

// EstimateRequest is the body of POST /api/v1/roi/estimate.
type EstimateRequest struct {
	InvestmentAmount   *float64 `json:"investmentAmount" validate:"omitempty,gt=0,lte=1000000000000000"`
	CompanySize        string   `json:"companySize" validate:"required,oneof=startup small medium large enterprise"`
	Industry           string   `json:"industry" validate:"required,oneof=technology financial healthcare manufacturing retail other"`
	HasInternalTalent  bool     `json:"hasInternalTalent"`
	TimelinePreference string   `json:"timelinePreference" validate:"required,oneof=aggressive moderate conservative"`
	SessionID          string   `json:"sessionId" validate:"omitempty,max=128"`
	Revision           int64    `json:"revision" validate:"gte=0"`
}

// FieldError is one entry of the 400 response body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type bindError struct {
	fields []FieldError
}

func (e *bindError) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Message
	}
	return strings.Join(parts, "; ")
}

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// requestValidator returns the process-wide validator with English messages and
// json field names.
func requestValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// bindEstimateRequest decodes, normalises and validates the request body.
func bindEstimateRequest(r *http.Request) (*EstimateRequest, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	var req EstimateRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &bindError{fields: []FieldError{{Message: "request body is empty"}}}
		}
		return nil, &bindError{fields: []FieldError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	if dec.More() {
		return nil, &bindError{fields: []FieldError{{Message: "unexpected trailing data"}}}
	}

	req.CompanySize = normalizeEnum(req.CompanySize)
	req.Industry = normalizeEnum(req.Industry)
	req.TimelinePreference = normalizeEnum(req.TimelinePreference)
	req.SessionID = strings.TrimSpace(req.SessionID)

	svc := requestValidator()
	if err := svc.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		out := make([]FieldError, len(verrs))
		for i, fe := range verrs {
			out[i] = FieldError{Field: fe.Field(), Message: fe.Translate(svc.translator)}
		}
		return nil, &bindError{fields: out}
	}
	return &req, nil
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EstimatorInput copies the enumerated fields. The caller resolves the
// investment through Service.ResolveInvestment so omission and zero stay distinct.
func (req *EstimateRequest) EstimatorInput() models.EstimatorInput {
	in := models.EstimatorInput{
		CompanySize:        models.CompanySize(req.CompanySize),
		Industry:           models.Industry(req.Industry),
		HasInternalTalent:  req.HasInternalTalent,
		TimelinePreference: models.TimelinePreference(req.TimelinePreference),
	}
	if req.InvestmentAmount != nil {
		in.InvestmentAmount = *req.InvestmentAmount
	}
	return in
}
