package query

import "time"

// Metric is the aggregated quantity.
type Metric string

const (
	MetricRevenue        Metric = "revenue"
	MetricOrders         Metric = "orders"
	MetricItemsSold      Metric = "items_sold"
	MetricPerItemRevenue Metric = "per_item_revenue"
)

// Dimension is an axis along which the metric is grouped.
type Dimension string

const (
	DimensionLocation          Dimension = "location"
	DimensionProduct           Dimension = "product"
	DimensionCategory          Dimension = "category"
	DimensionDate              Dimension = "date"
	DimensionHour              Dimension = "hour"
	DimensionFulfillmentMethod Dimension = "fulfillment_method"
	DimensionProvider          Dimension = "provider"
)

// SortBy selects the ordering column.
type SortBy string

const (
	SortByValue SortBy = "value"
	SortByCount SortBy = "count"
	SortByName  SortBy = "name"
	SortByDate  SortBy = "date"
)

// SortOrder is the ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DateLayout is the calendar date format used in date range filters.
const DateLayout = time.DateOnly

// Metrics lists every supported metric.
var Metrics = []Metric{MetricRevenue, MetricOrders, MetricItemsSold, MetricPerItemRevenue}

// Dimensions lists every supported dimension.
var Dimensions = []Dimension{
	DimensionLocation, DimensionProduct, DimensionCategory, DimensionDate,
	DimensionHour, DimensionFulfillmentMethod, DimensionProvider,
}

// DateRange is an inclusive range of calendar days, both YYYY-MM-DD.
// End covers the whole day up to its final instant.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Filters restrict the orders and line items aggregated. All filters combine
// conjunctively; values within one filter are alternatives.
type Filters struct {
	DateRange          *DateRange `json:"date_range,omitempty"`
	Locations          []string   `json:"locations,omitempty"`
	FulfillmentMethods []string   `json:"fulfillmentMethods,omitempty"`
	Categories         []string   `json:"categories,omitempty"`
	Products           []string   `json:"products,omitempty"`
	Providers          []string   `json:"providers,omitempty"`
}

// Intent is a structured analytical question.
type Intent struct {
	Metric    Metric      `json:"metric"`
	GroupBy   []Dimension `json:"groupBy"`
	Filters   Filters     `json:"filters"`
	Limit     *int        `json:"limit,omitempty"`
	SortBy    SortBy      `json:"sortBy,omitempty"`
	SortOrder SortOrder   `json:"sortOrder,omitempty"`
}

// Groups reports whether d is one of the intent's dimensions.
func (i *Intent) Groups(d Dimension) bool {
	for _, g := range i.GroupBy {
		if g == d {
			return true
		}
	}
	return false
}

// Row is one charting data point.
type Row struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Result is the answer to an intent.
type Result struct {
	Metric  Metric      `json:"metric"`
	GroupBy []Dimension `json:"groupBy"`
	Rows    []Row       `json:"rows"`
}
