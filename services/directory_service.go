//go:generate go run go.uber.org/mock/mockgen -source=directory_service.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain/naming"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
)

// IDirectoryService is the broker's view of the directory tree.
type IDirectoryService interface {
	RegisterAddress(ctx context.Context, username, address string) error
	Lookup(ctx context.Context, name string) (string, error)
}

// DirectoryService talks to the root zone and walks down from it.
type DirectoryService struct {
	log         *slog.Logger
	dialer      contract.ZoneDialer
	rootAddress string
}

func NewDirectoryService(log *slog.Logger, dialer contract.ZoneDialer, rootAddress string) *DirectoryService {
	return &DirectoryService{log: log, dialer: dialer, rootAddress: rootAddress}
}

// RegisterAddress lets the root zone route the registration to the zone
// owning username.
func (s *DirectoryService) RegisterAddress(ctx context.Context, username, address string) error {
	root, err := s.dialer.Dial(s.rootAddress)
	if err != nil {
		return err
	}
	return root.RegisterAddress(ctx, username, address)
}

// Lookup resolves the zone of name one label at a time, right to left,
// then asks that zone for the address.
// Errors: ErrInvalidDomain when a zone on the path does not exist,
// ErrAddressNotFound when the user never registered, ErrZoneUnreachable.
func (s *DirectoryService) Lookup(ctx context.Context, name string) (string, error) {
	if !naming.IsValidDomain(name) {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidDomain, name)
	}
	labels := naming.Labels(name)

	zone, err := s.dialer.Dial(s.rootAddress)
	if err != nil {
		return "", err
	}
	for i := len(labels) - 1; i >= 1; i-- {
		address, found, err := zone.ResolveZone(ctx, labels[i])
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("%w: no zone %q under %s", errors.ErrInvalidDomain, labels[i], zone.Address())
		}
		if zone, err = s.dialer.Dial(address); err != nil {
			return "", err
		}
	}

	address, found, err := zone.Lookup(ctx, labels[0])
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s", errors.ErrAddressNotFound, name)
	}
	s.log.Debug("Address resolved", "name", name, "zone", zone.Address(), "hops", len(labels)-1)
	return address, nil
}
