package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/enum"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	customerAgentConstraint = "customers_agent_id_fkey"
)

// CustomerStore defines the database methods needed by license record handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	SearchCustomers(ctx context.Context, p database.CustomerSearchParams) ([]database.Customer, error)
}

// CustomerHandler issues and lists license records.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
// Expected to be mounted at /api/customers.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// --- Request / Response types ---

type createCustomerRequest struct {
	CustomerName string `json:"customerName" validate:"required,max=200"`
	ProductID    string `json:"productId" validate:"required,max=100"`
	LicenseKey   string `json:"licenseKey" validate:"required,max=200"`
	MachineID    string `json:"machineId" validate:"max=200"`
	ExpiryDate   string `json:"expiryDate" validate:"required,datetime=2006-01-02"`
	Message      string `json:"message" validate:"max=1000"`
	AgentID      string `json:"agentId" validate:"omitempty,uuid"`
}

type customerResponse struct {
	ID           uuid.UUID  `json:"id"`
	CustomerName string     `json:"customerName"`
	ProductID    string     `json:"productId"`
	LicenseKey   string     `json:"licenseKey"`
	MachineID    *string    `json:"machineId"`
	ExpiryDate   *string    `json:"expiryDate"`
	Message      *string    `json:"message"`
	AgentID      *uuid.UUID `json:"agentId"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:           c.ID,
		CustomerName: c.CustomerName,
		ProductID:    c.ProductID,
		LicenseKey:   c.LicenseKey,
		MachineID:    textPtr(c.MachineID),
		ExpiryDate:   datePtr(c.ExpiryDate),
		Message:      textPtr(c.Message),
		AgentID:      uuidPtr(c.AgentID),
		CreatedAt:    c.CreatedAt,
	}
}

// --- Handlers ---

// List returns license records filtered by search, agentId and productId.
// sort and order are checked against a fixed whitelist.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(q.Get("limit"), q.Get("offset"), defaultPageLimit, maxPageLimit)

	sort := q.Get("sort")
	if sort != "" && !database.IsCustomerSortField(sort) {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed,
			"sort must be one of createdAt, customerName, productId, expiryDate")
		return
	}
	order := strings.ToLower(q.Get("order"))
	if order != "" && order != enum.OrderAsc && order != enum.OrderDesc {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, "order must be asc or desc")
		return
	}

	agentFilter, ok := agentFilterParam(w, q.Get("agentId"))
	if !ok {
		return
	}

	customers, err := h.store.SearchCustomers(r.Context(), database.CustomerSearchParams{
		Search:    q.Get("search"),
		AgentID:   agentFilter,
		ProductID: q.Get("productId"),
		Sort:      sort,
		Order:     order,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeInternal(w, r, "search customers", err)
		return
	}

	rows := make([]customerResponse, len(customers))
	for i, c := range customers {
		rows[i] = toCustomerResponse(c)
	}
	writeOK(w, map[string]any{"rows": rows})
}

// Get returns a single license record.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonInvalidRequest, "invalid customer ID")
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, enum.ReasonCustomerNotFound, "customer not found")
			return
		}
		writeInternal(w, r, "get customer", err)
		return
	}

	writeOK(w, map[string]any{"customer": toCustomerResponse(customer)})
}

// Create issues a license record, optionally attributed to an agent.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.LicenseKey = strings.TrimSpace(req.LicenseKey)
	req.MachineID = strings.TrimSpace(req.MachineID)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, err.Error())
		return
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, "expiryDate must be a date in YYYY-MM-DD format")
		return
	}

	var agentID pgtype.UUID
	if req.AgentID != "" {
		agentID = pgtype.UUID{Bytes: uuid.MustParse(req.AgentID), Valid: true}
	}

	customer, err := h.store.CreateCustomer(r.Context(), database.CreateCustomerParams{
		CustomerName: req.CustomerName,
		ProductID:    req.ProductID,
		LicenseKey:   req.LicenseKey,
		MachineID:    optionalText(req.MachineID),
		ExpiryDate:   expiry,
		Message:      optionalText(req.Message),
		AgentID:      agentID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgUniqueViolation:
				writeError(w, http.StatusConflict, enum.ReasonLicenseKeyExists, "license key already exists")
				return
			case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == customerAgentConstraint:
				writeError(w, http.StatusNotFound, enum.ReasonAgentNotFound, "agent not found")
				return
			}
		}
		writeInternal(w, r, "create customer", err)
		return
	}

	writeOK(w, map[string]any{"id": customer.ID, "customer": toCustomerResponse(customer)})
}
