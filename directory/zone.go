// Package directory implements one naming authority of the directory tree.
//
// A Zone owns a table of delegated child zones and a table of local user
// addresses. Every operation on a qualified name strips the rightmost label,
// finds the child zone it names and delegates the remainder, so a name with N
// labels is resolved after N-1 hops. Nothing is rolled back when a delegated
// call fails: zones that were already updated stay updated.
package directory

import (
	"chat-relay/contract"
	"chat-relay/domain/naming"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

const rootName = "root"

var _ contract.ZoneHandle = (*Zone)(nil)

type Zone struct {
	mu        sync.RWMutex
	log       *slog.Logger
	name      string
	address   string
	dialer    contract.ZoneDialer
	zones     map[string]contract.ZoneHandle // normalized label -> child zone
	addresses AddressTable
}

// NewZone creates a zone. An empty name is the root of the tree.
// address is the RPC address the zone is reachable at; it is what parent
// zones and the broker store as this zone's handle.
func NewZone(log *slog.Logger, name, address string, dialer contract.ZoneDialer, addresses AddressTable) *Zone {
	return &Zone{
		log:       log,
		name:      name,
		address:   address,
		dialer:    dialer,
		zones:     make(map[string]contract.ZoneHandle),
		addresses: addresses,
	}
}

func (z *Zone) Name() string {
	if z.name == "" {
		return rootName
	}
	return z.name
}

func (z *Zone) Address() string {
	return z.address
}

// RegisterZone binds a new child zone reachable at address.
// A dotted path is delegated to the child named by its last label, which
// must already exist.
func (z *Zone) RegisterZone(ctx context.Context, path, address string) error {
	if !naming.IsValidDomain(path) {
		return fmt.Errorf("%w: %q may contain only alphabetic labels", errors.ErrInvalidDomain, path)
	}

	label, rest, delegated := naming.SplitLast(path)
	if delegated {
		child, ok := z.child(label)
		if !ok {
			return fmt.Errorf("%w: parent zone %q not found", errors.ErrInvalidDomain, label)
		}
		z.log.Debug("Delegating zone registration", "zone", z.Name(), "child", label, "path", rest)
		return child.RegisterZone(ctx, rest, address)
	}

	key := naming.NormalizeLabel(label)
	if _, ok := z.child(key); ok {
		return fmt.Errorf("%w: zone %q", errors.ErrAlreadyRegistered, label)
	}

	// Dialing is lazy and must not happen under the lock.
	handle, err := z.dialer.Dial(address)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrZoneUnreachable, address, err)
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	if _, ok := z.zones[key]; ok {
		return fmt.Errorf("%w: zone %q", errors.ErrAlreadyRegistered, label)
	}
	z.zones[key] = handle
	z.log.Info("Zone registered", "zone", z.Name(), "child", key, "address", address)
	return nil
}

// RegisterAddress stores the private address of a user.
// The base case overwrites any previous address.
func (z *Zone) RegisterAddress(ctx context.Context, name, address string) error {
	label, rest, delegated := naming.SplitLast(name)
	if !delegated {
		if name == "" {
			return fmt.Errorf("%w: empty name", errors.ErrInvalidDomain)
		}
		if err := z.addresses.Put(name, address); err != nil {
			return fmt.Errorf("storing address of %s: %w", name, err)
		}
		z.log.Info("Address registered", "zone", z.Name(), "user", name, "address", address)
		return nil
	}

	child, err := z.descend(label, rest)
	if err != nil {
		return err
	}
	return child.RegisterAddress(ctx, rest, address)
}

// Lookup returns the address registered for name.
// An unknown user is reported with found == false, never as an error.
func (z *Zone) Lookup(ctx context.Context, name string) (string, bool, error) {
	label, rest, delegated := naming.SplitLast(name)
	if !delegated {
		address, found, err := z.addresses.Get(name)
		if err != nil {
			return "", false, fmt.Errorf("reading address of %s: %w", name, err)
		}
		return address, found, nil
	}

	child, err := z.descend(label, rest)
	if err != nil {
		return "", false, err
	}
	return child.Lookup(ctx, rest)
}

// ResolveZone returns the address of the direct child zone named label.
func (z *Zone) ResolveZone(_ context.Context, label string) (string, bool, error) {
	child, ok := z.child(label)
	if !ok {
		return "", false, nil
	}
	return child.Address(), true, nil
}

// Zones lists the labels of the direct child zones in lexical order.
func (z *Zone) Zones() []string {
	z.mu.RLock()
	defer z.mu.RUnlock()
	labels := lo.Keys(z.zones)
	slices.Sort(labels)
	return labels
}

// Addresses lists the local address table.
func (z *Zone) Addresses() (map[string]string, error) {
	return z.addresses.All()
}

func (z *Zone) Close() error {
	return z.addresses.Close()
}

func (z *Zone) child(label string) (contract.ZoneHandle, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	handle, ok := z.zones[naming.NormalizeLabel(label)]
	return handle, ok
}

func (z *Zone) descend(label, rest string) (contract.ZoneHandle, error) {
	if rest == "" || !naming.IsValidLabel(label) {
		return nil, fmt.Errorf("%w: the domain may contain only alphabetic characters", errors.ErrInvalidDomain)
	}
	child, ok := z.child(label)
	if !ok {
		return nil, fmt.Errorf("%w: zone %q does not exist", errors.ErrInvalidDomain, label)
	}
	return child, nil
}
