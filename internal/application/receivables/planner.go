package receivables

// queryPath selects where filtering, sorting and pagination happen for one
// list query.
type queryPath int

const (
	// pathStored pushes predicate, ordering and pagination to the store
	pathStored queryPath = iota
	// pathDerived fetches the full stored-field match set, then filters,
	// sorts and paginates in memory on the derived fields
	pathDerived
)

// derivedSortFields are the sort targets the store cannot express because
// they are computed from the payment sum and the due date on every read.
var derivedSortFields = map[string]bool{
	"payment_status": true,
	"outstanding":    true,
	"paid_amount":    true,
	"overdue_days":   true,
}

// storedSortColumns maps the accepted stored-field sort names to the order
// columns the store understands.
var storedSortColumns = map[string]string{
	"order_number": "order_number",
	"ordered_at":   "ordered_at",
	"total_amount": "total_amount",
	"due_date":     "due_date",
}

// plan decides the query path for a request. Any touch of a derived field,
// by filter or by sort, forces the in-memory path; expressing the derived
// formula as a store predicate is deliberately not attempted.
func plan(req ListRequest) queryPath {
	if req.PaymentStatus != nil {
		return pathDerived
	}
	if derivedSortFields[req.SortBy] {
		return pathDerived
	}
	return pathStored
}
