// Package dli implements a client for Digital Loggers switched PDUs. A
// Controller talks to the switch REST API with digest authentication and
// addresses outlets by 0-indexed number, by name (case-insensitive, with
// optional unambiguous prefix matching), or all at once.
package dli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sdss/sdssdli/pkg/secrets"
)

// Config holds the parameters needed to reach a Digital Loggers switch.
type Config struct {
	// Name associated with this controller. Only used to look up the
	// password under dli.<name>.<user> in the secrets file.
	Name string

	// Host is the address of the switch.
	Host string

	// Port for the connection. Defaults to the HTTP port.
	Port int

	// User is the username to connect with.
	User string

	// Password for the user, or a path to a YAML secrets file. Defaults
	// to ~/.secrets.yaml. See pkg/secrets for the lookup rules.
	Password string

	// Timeout applied to each request. Zero means no timeout.
	Timeout time.Duration
}

// Controller drives a single Digital Loggers switched PDU.
//
// The outlet registry starts empty and is populated from the device by
// Reload, either called explicitly or triggered by the first outlet
// operation. Every Reload replaces the registry wholesale.
type Controller struct {
	Name string
	Host string
	Port int
	User string

	password string // resolved once at construction, never mutated
	timeout  time.Duration

	outlets *registry
}

// NewController resolves the controller credentials and returns a new
// Controller. Construction fails if a secrets file was given explicitly but
// holds no entry for the controller and user.
func NewController(cfg Config) (*Controller, error) {
	password, err := secrets.Resolve(cfg.Name, cfg.User, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials for %q: %w", cfg.Name, err)
	}

	port := cfg.Port
	if port == 0 {
		port = 80
	}

	return &Controller{
		Name:     cfg.Name,
		Host:     cfg.Host,
		Port:     port,
		User:     cfg.User,
		password: password,
		timeout:  cfg.Timeout,
		outlets:  newRegistry(nil),
	}, nil
}

// OutletRef identifies an outlet by 0-indexed number or by name. Go has no
// int|string unions, so the two addressing modes the REST API supports are
// folded into one small value type. Number refs are passed to the device
// as-is, without checking them against the registry; name refs are resolved
// with GetOutletNumber semantics.
type OutletRef struct {
	name  string
	index int
	byIdx bool
	all   bool
}

// ByIndex selects an outlet by its 0-indexed number.
func ByIndex(outlet int) OutletRef {
	return OutletRef{index: outlet, byIdx: true}
}

// ByName selects an outlet by name, allowing unambiguous prefixes.
func ByName(name string) OutletRef {
	return OutletRef{name: name}
}

// All selects every outlet on the device. It is only special when passed as
// the sole ref of an operation; inside a longer list it resolves like the
// outlet name "all".
var All = OutletRef{all: true}

// ParseOutletRef maps a command-line style argument to an outlet ref: "all"
// selects every outlet, a non-negative integer selects by number, and
// anything else selects by name.
func ParseOutletRef(arg string) OutletRef {
	if arg == "all" {
		return All
	}
	if outlet, err := strconv.Atoi(arg); err == nil && outlet >= 0 {
		return ByIndex(outlet)
	}
	return ByName(arg)
}

func (ref OutletRef) String() string {
	switch {
	case ref.all:
		return "all"
	case ref.byIdx:
		return strconv.Itoa(ref.index)
	default:
		return ref.name
	}
}

// Outlet describes one registered outlet.
type Outlet struct {
	Outlet int    `json:"outlet" yaml:"outlet"`
	Name   string `json:"name" yaml:"name"`
}

// OutletState is the reported on/off state of a single outlet.
type OutletState struct {
	Outlet int    `json:"outlet" yaml:"outlet"`
	Name   string `json:"name" yaml:"name"`
	On     bool   `json:"on" yaml:"on"`
}

// IsConnected reports whether the switch is responding to requests.
func (c *Controller) IsConnected(ctx context.Context) bool {
	return c.getJSON(ctx, "/relay/outlets/=0/state/", nil, nil) == nil
}

// Reload refreshes the internal information about the outlets. The device
// reports outlet names in index order; both directions of the mapping are
// rebuilt from that single response.
func (c *Controller) Reload(ctx context.Context) error {
	var names []string
	err := c.getJSON(ctx, "/relay/outlets/all;/name/", &names, HTTPHeader{"Accept": "application/json"})
	if err != nil {
		return fmt.Errorf("failed to reload outlet names: %w", err)
	}
	c.outlets = newRegistry(names)
	return nil
}

// Outlets returns the registered outlets in device order.
func (c *Controller) Outlets() []Outlet {
	reg := c.outlets
	outlets := make([]Outlet, reg.size())
	for i, name := range reg.names {
		outlets[i] = Outlet{Outlet: i, Name: name}
	}
	return outlets
}

// GetOutletNumber returns the 0-indexed outlet number for an outlet name, as
// expected by the REST API. The match is case-insensitive. With fuzzy set, a
// name that does not match exactly is still accepted when it is a prefix of
// exactly one registered outlet name.
func (c *Controller) GetOutletNumber(name string, fuzzy bool) (int, error) {
	return c.outlets.resolve(name, fuzzy)
}

// checkOutlets attempts a reload of the outlets if none are present. At most
// one reload is attempted.
func (c *Controller) checkOutlets(ctx context.Context) error {
	if c.outlets.size() > 0 {
		return nil
	}

	log.Warn().Str("controller", c.Name).Msg("no outlets found, trying to reload")
	if err := c.Reload(ctx); err != nil {
		return err
	}

	if c.outlets.size() == 0 {
		return ErrNoOutlets
	}
	return nil
}

// outletIndices resolves refs into 0-indexed outlet numbers against the
// given registry, preserving order and duplicates.
func outletIndices(reg *registry, refs []OutletRef) ([]int, error) {
	indices := make([]int, 0, len(refs))
	for _, ref := range refs {
		if ref.byIdx {
			indices = append(indices, ref.index)
			continue
		}
		name := ref.name
		if ref.all {
			// All inside a list is treated as a regular outlet name.
			name = "all"
		}
		outlet, err := reg.resolve(name, true)
		if err != nil {
			return nil, err
		}
		indices = append(indices, outlet)
	}
	if len(indices) == 0 {
		return nil, ErrNoOutletsSpecified
	}
	return indices, nil
}

// selector formats outlet numbers as the =i1,i2,... route selector.
func selector(indices []int) string {
	parts := make([]string, len(indices))
	for i, outlet := range indices {
		parts[i] = strconv.Itoa(outlet)
	}
	return "=" + strings.Join(parts, ",")
}

// State returns the state of the requested outlets, in request order. Pass
// All as the only ref to query every registered outlet in device order.
func (c *Controller) State(ctx context.Context, outlets ...OutletRef) ([]OutletState, error) {
	if err := c.checkOutlets(ctx); err != nil {
		return nil, err
	}
	reg := c.outlets

	var (
		route   string
		indices []int
	)
	if len(outlets) == 1 && outlets[0].all {
		route = "all;"
		indices = make([]int, reg.size())
		for i := range indices {
			indices[i] = i
		}
	} else {
		var err error
		indices, err = outletIndices(reg, outlets)
		if err != nil {
			return nil, err
		}
		route = selector(indices)
	}

	var states []bool
	if err := c.getJSON(ctx, fmt.Sprintf("/relay/outlets/%s/state/", route), &states, nil); err != nil {
		return nil, err
	}

	n := len(indices)
	if len(states) < n {
		n = len(states)
	}
	result := make([]OutletState, 0, n)
	for i := 0; i < n; i++ {
		name, ok := reg.nameOf(indices[i])
		if !ok {
			return nil, fmt.Errorf("outlet %d is not in the registry: %w", indices[i], ErrOutletNotFound)
		}
		result = append(result, OutletState{Outlet: indices[i], Name: name, On: states[i]})
	}
	return result, nil
}

// On turns on the given outlets. Pass All as the only ref to switch every
// outlet; that goes straight to the device and works even before the outlet
// registry has been loaded.
func (c *Controller) On(ctx context.Context, outlets ...OutletRef) error {
	return c.switchOutlets(ctx, outlets, true)
}

// Off turns off the given outlets. All behaves as for On.
func (c *Controller) Off(ctx context.Context, outlets ...OutletRef) error {
	return c.switchOutlets(ctx, outlets, false)
}

func (c *Controller) switchOutlets(ctx context.Context, outlets []OutletRef, value bool) error {
	var route string
	if len(outlets) == 1 && outlets[0].all {
		route = "all;"
	} else {
		if err := c.checkOutlets(ctx); err != nil {
			return err
		}
		indices, err := outletIndices(c.outlets, outlets)
		if err != nil {
			return err
		}
		route = selector(indices)
	}

	form := url.Values{"value": []string{strconv.FormatBool(value)}}
	return c.put(ctx, fmt.Sprintf("/relay/outlets/%s/state/", route), form, HTTPHeader{"X-CSRF": "x"})
}
