package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address string  `json:"address"`
}

type ListClientRequest struct {
	PageToken   string
	PageSize    int32
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	UpsertByEmail(ctx context.Context, req CreateClientRequest) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrEmailTaken       = errors.New("email_taken")
	ErrNotFound         = errors.New("client_not_found")
)

// Normalize trims the request and checks name and email shape.
func (r CreateClientRequest) Normalize() (CreateClientRequest, error) {
	out := CreateClientRequest{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.ToLower(strings.TrimSpace(r.Email)),
		Address: strings.TrimSpace(r.Address),
	}
	if r.Phone != nil {
		if phone := strings.TrimSpace(*r.Phone); phone != "" {
			out.Phone = &phone
		}
	}
	if out.Name == "" {
		return out, ErrInvalidName
	}
	if !looksLikeEmail(out.Email) {
		return out, ErrInvalidEmail
	}
	return out, nil
}

func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.ContainsAny(email, " \t")
}
