package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/orderlens/internal/errors"
)

// DefaultMaxLimit bounds the number of rows an intent may request.
const DefaultMaxLimit = 1000

// ErrInvalidIntent is matched by every validation failure.
var ErrInvalidIntent = errors.NewStd("invalid query intent")

// ValidationError lists every problem found in an intent.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query intent: " + strings.Join(e.Problems, "; ")
}

// Is matches ErrInvalidIntent.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidIntent
}

// Validator checks intents against the supported metrics and dimensions and
// the configured closed sets of filter values. An empty set accepts any
// non-empty value.
type Validator struct {
	Locations          []string
	FulfillmentMethods []string
	Providers          []string
	MaxLimit           int
}

// NewValidator returns a validator with the default limit and no closed sets.
func NewValidator() *Validator {
	return &Validator{MaxLimit: DefaultMaxLimit}
}

// Validate reports every problem in the intent at once. The returned error
// wraps a *ValidationError and carries the validation category.
func (v *Validator) Validate(intent *Intent) error {
	if intent == nil {
		return v.fail([]string{"intent is required"})
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if intent.Metric == "" {
		add("metric is required")
	} else if !slices.Contains(Metrics, intent.Metric) {
		add("unknown metric %q", intent.Metric)
	}

	if len(intent.GroupBy) == 0 {
		add("groupBy must name at least one dimension")
	}
	seen := make(map[Dimension]bool, len(intent.GroupBy))
	for _, d := range intent.GroupBy {
		switch {
		case !slices.Contains(Dimensions, d):
			add("unknown dimension %q", d)
		case seen[d]:
			add("dimension %q listed more than once", d)
		}
		seen[d] = true
	}

	if intent.Limit != nil {
		maxLimit := v.MaxLimit
		if maxLimit <= 0 {
			maxLimit = DefaultMaxLimit
		}
		if *intent.Limit < 1 || *intent.Limit > maxLimit {
			add("limit must be between 1 and %d", maxLimit)
		}
	}

	switch intent.SortBy {
	case "", SortByValue, SortByCount, SortByName, SortByDate:
	default:
		add("unknown sortBy %q", intent.SortBy)
	}
	switch intent.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		add("unknown sortOrder %q", intent.SortOrder)
	}

	f := &intent.Filters
	if f.DateRange != nil {
		problems = append(problems, validateDateRange(f.DateRange)...)
	}
	problems = append(problems, checkValues("locations", f.Locations, v.Locations)...)
	problems = append(problems, checkValues("fulfillmentMethods", f.FulfillmentMethods, v.FulfillmentMethods)...)
	problems = append(problems, checkValues("providers", f.Providers, v.Providers)...)
	problems = append(problems, checkValues("categories", f.Categories, nil)...)
	problems = append(problems, checkValues("products", f.Products, nil)...)

	if len(problems) > 0 {
		return v.fail(problems)
	}
	return nil
}

func (v *Validator) fail(problems []string) error {
	return errors.New(&ValidationError{Problems: problems}).
		Component("query").
		Category(errors.CategoryValidation).
		Context("problems", len(problems)).
		Build()
}

func validateDateRange(r *DateRange) []string {
	var problems []string
	start, errStart := time.Parse(DateLayout, r.Start)
	if errStart != nil {
		problems = append(problems, fmt.Sprintf("date_range.start %q is not a YYYY-MM-DD date", r.Start))
	}
	end, errEnd := time.Parse(DateLayout, r.End)
	if errEnd != nil {
		problems = append(problems, fmt.Sprintf("date_range.end %q is not a YYYY-MM-DD date", r.End))
	}
	if errStart == nil && errEnd == nil && end.Before(start) {
		problems = append(problems, "date_range.end is before date_range.start")
	}
	return problems
}

func checkValues(field string, values, allowed []string) []string {
	var problems []string
	for _, value := range values {
		switch {
		case strings.TrimSpace(value) == "":
			problems = append(problems, field+" contains an empty value")
		case len(allowed) > 0 && !slices.Contains(allowed, value):
			problems = append(problems, fmt.Sprintf("%s value %q is not one of %s", field, value, strings.Join(allowed, ", ")))
		}
	}
	return problems
}

// ParseIntent decodes a JSON intent. Unknown fields are rejected.
func ParseIntent(data []byte) (*Intent, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var intent Intent
	if err := dec.Decode(&intent); err != nil {
		return nil, errors.New(fmt.Errorf("decode query intent: %w", err)).
			Component("query").
			Category(errors.CategoryValidation).
			Build()
	}
	if dec.More() {
		return nil, errors.Newf("decode query intent: trailing data after intent").
			Component("query").
			Category(errors.CategoryValidation).
			Build()
	}
	return &intent, nil
}
