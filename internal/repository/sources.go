package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evanperkins/frontdesk/internal/domain"
)

// GetInquiryForUserParams scopes an inquiry lookup to its owner.
type GetInquiryForUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// ListInquiriesForUserParams pages through a user's inquiries.
type ListInquiriesForUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

// GetAppointmentForUserParams scopes an appointment lookup to its owner.
type GetAppointmentForUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// ListAppointmentsForUserParams pages through a user's appointments.
type ListAppointmentsForUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

// GetInquiryForUser retrieves an inquiry by id, scoped to its owner.
func (s *Store) GetInquiryForUser(ctx context.Context, params GetInquiryForUserParams) (*domain.Inquiry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, customer_name, customer_phone, customer_email,
			inquiry_type, description, status, created_at
		FROM inquiries
		WHERE id = $1 AND user_id = $2`,
		params.ID, params.UserID,
	)

	var inq domain.Inquiry
	err := row.Scan(
		&inq.ID, &inq.UserID, &inq.CustomerName, &inq.CustomerPhone, &inq.CustomerEmail,
		&inq.InquiryType, &inq.Description, &inq.Status, &inq.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan inquiry: %w", err)
	}

	return &inq, nil
}

// ListInquiriesForUser returns a user's inquiries, newest first.
func (s *Store) ListInquiriesForUser(ctx context.Context, params ListInquiriesForUserParams) ([]domain.Inquiry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, customer_name, customer_phone, customer_email,
			inquiry_type, description, status, created_at
		FROM inquiries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		params.UserID, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []domain.Inquiry
	for rows.Next() {
		var inq domain.Inquiry
		if err := rows.Scan(
			&inq.ID, &inq.UserID, &inq.CustomerName, &inq.CustomerPhone, &inq.CustomerEmail,
			&inq.InquiryType, &inq.Description, &inq.Status, &inq.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inquiries = append(inquiries, inq)
	}

	return inquiries, rows.Err()
}

// GetAppointmentForUser retrieves an appointment by id, scoped to its owner.
func (s *Store) GetAppointmentForUser(ctx context.Context, params GetAppointmentForUserParams) (*domain.Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, customer_name, customer_phone, customer_email,
			service_type, service_description, quoted_price, status, created_at
		FROM appointments
		WHERE id = $1 AND user_id = $2`,
		params.ID, params.UserID,
	)

	var appt domain.Appointment
	err := row.Scan(
		&appt.ID, &appt.UserID, &appt.CustomerName, &appt.CustomerPhone, &appt.CustomerEmail,
		&appt.ServiceType, &appt.ServiceDescription, &appt.QuotedPrice, &appt.Status, &appt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}

	return &appt, nil
}

// ListAppointmentsForUser returns a user's appointments, newest first.
func (s *Store) ListAppointmentsForUser(ctx context.Context, params ListAppointmentsForUserParams) ([]domain.Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, customer_name, customer_phone, customer_email,
			service_type, service_description, quoted_price, status, created_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		params.UserID, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(
			&appt.ID, &appt.UserID, &appt.CustomerName, &appt.CustomerPhone, &appt.CustomerEmail,
			&appt.ServiceType, &appt.ServiceDescription, &appt.QuotedPrice, &appt.Status, &appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}

	return appointments, rows.Err()
}
