package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Errors returned by BuildCustomerSearch for values outside the whitelist.
var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// customerSortColumns maps the public sort keys to columns. Only these keys
// ever reach the ORDER BY clause.
var customerSortColumns = map[string]string{
	"createdAt":    "created_at",
	"customerName": "customer_name",
	"productId":    "product_id",
	"expiryDate":   "expiry_date",
}

const customerColumns = `id, customer_name, product_id, license_key, machine_id, expiry_date, message, agent_id, created_at`

// CustomerSearchParams filters and orders the license record listing.
// Empty strings and invalid UUIDs mean "no filter".
type CustomerSearchParams struct {
	Search    string
	AgentID   pgtype.UUID
	ProductID string
	Sort      string
	Order     string
	Limit     int32
	Offset    int32
}

// IsCustomerSortField reports whether key is an accepted sort key.
func IsCustomerSortField(key string) bool {
	_, ok := customerSortColumns[key]
	return ok
}

// BuildCustomerSearch renders the listing query. User input only ever travels
// as bind parameters; sort and order are resolved against fixed tables.
func BuildCustomerSearch(p CustomerSearchParams) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if s := strings.TrimSpace(p.Search); s != "" {
		ph := bind("%" + escapeLike(s) + "%")
		where = append(where, fmt.Sprintf(
			"(customer_name ILIKE %[1]s OR product_id ILIKE %[1]s OR license_key ILIKE %[1]s OR machine_id ILIKE %[1]s)", ph))
	}
	if p.AgentID.Valid {
		where = append(where, "agent_id = "+bind(p.AgentID))
	}
	if s := strings.TrimSpace(p.ProductID); s != "" {
		where = append(where, "product_id = "+bind(s))
	}

	column := "created_at"
	if p.Sort != "" {
		c, ok := customerSortColumns[p.Sort]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidSortField, p.Sort)
		}
		column = c
	}

	direction := "DESC"
	switch strings.ToLower(p.Order) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSortOrder, p.Order)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(customerColumns)
	sb.WriteString(" FROM customers")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s NULLS LAST, id %s", column, direction, direction)
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", bind(p.Limit), bind(p.Offset))

	return sb.String(), args, nil
}

// SearchCustomers runs the query produced by BuildCustomerSearch.
func (q *Queries) SearchCustomers(ctx context.Context, p CustomerSearchParams) ([]Customer, error) {
	query, args, err := BuildCustomerSearch(p)
	if err != nil {
		return nil, err
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Customer
	for rows.Next() {
		var i Customer
		if err := rows.Scan(
			&i.ID,
			&i.CustomerName,
			&i.ProductID,
			&i.LicenseKey,
			&i.MachineID,
			&i.ExpiryDate,
			&i.Message,
			&i.AgentID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
