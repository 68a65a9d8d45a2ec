// Package perms resolves permission nodes for players from a YAML groups file
// and runtime grants.
package perms

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultGroup applies to players not listed in the file.
const DefaultGroup = "default"

// Wildcard matches every node.
const Wildcard = "*"

type Group struct {
	Permissions []string `yaml:"permissions"`
	Inherits    []string `yaml:"inherits"`
}

// File is the on-disk layout of the permissions file.
type File struct {
	Groups  map[string]Group    `yaml:"groups"`
	Players map[string][]string `yaml:"players"`
}

// Policy is a parsed permissions file with group inheritance resolved.
type Policy struct {
	groups  map[string][]string
	players map[string][]string
}

// Parse decodes and resolves a permissions document.
func Parse(data []byte) (*Policy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return resolve(f)
}

// LoadFile reads path. A missing file yields an empty policy and reports
// found=false.
func LoadFile(path string) (p *Policy, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Policy{groups: map[string][]string{}, players: map[string][]string{}}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p, err = Parse(data)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return p, true, nil
}

func resolve(f File) (*Policy, error) {
	p := &Policy{
		groups:  make(map[string][]string, len(f.Groups)),
		players: make(map[string][]string, len(f.Players)),
	}

	var expand func(name string, path []string) ([]string, error)
	expand = func(name string, path []string) ([]string, error) {
		for _, seen := range path {
			if seen == name {
				return nil, fmt.Errorf("group %q inherits itself via %s", name, strings.Join(append(path, name), " -> "))
			}
		}
		g, ok := f.Groups[name]
		if !ok {
			return nil, fmt.Errorf("unknown group %q", name)
		}
		nodes := append([]string(nil), g.Permissions...)
		for _, parent := range g.Inherits {
			inherited, err := expand(parent, append(path, name))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, inherited...)
		}
		return nodes, nil
	}

	for name := range f.Groups {
		nodes, err := expand(name, nil)
		if err != nil {
			return nil, err
		}
		p.groups[strings.ToLower(name)] = dedupe(nodes)
	}
	for player, groups := range f.Players {
		for _, g := range groups {
			if _, ok := f.Groups[g]; !ok {
				return nil, fmt.Errorf("player %q is in unknown group %q", player, g)
			}
		}
		lowered := make([]string, len(groups))
		for i, g := range groups {
			lowered[i] = strings.ToLower(g)
		}
		p.players[strings.ToLower(player)] = lowered
	}
	return p, nil
}

// Groups returns the groups player belongs to.
func (p *Policy) Groups(player string) []string {
	if gs, ok := p.players[strings.ToLower(player)]; ok {
		return gs
	}
	if _, ok := p.groups[DefaultGroup]; ok {
		return []string{DefaultGroup}
	}
	return nil
}

// Nodes returns the nodes player gets from the file.
func (p *Policy) Nodes(player string) []string {
	var out []string
	for _, g := range p.Groups(player) {
		out = append(out, p.groups[g]...)
	}
	return dedupe(out)
}

// Match reports whether any of granted covers node. A granted entry matches
// exactly, as "*", or as "prefix.*" covering every node under prefix.
func Match(granted []string, node string) bool {
	node = strings.ToLower(node)
	for _, g := range granted {
		g = strings.ToLower(strings.TrimSpace(g))
		switch {
		case g == Wildcard, g == node:
			return true
		case strings.HasSuffix(g, ".*") && strings.HasPrefix(node, strings.TrimSuffix(g, "*")):
			return true
		}
	}
	return false
}

// GrantStore persists runtime grants.
type GrantStore interface {
	AddGrant(player, node string) (bool, error)
	RemoveGrant(player, node string) (bool, error)
	Grants(player string) ([]string, error)
}

// Service answers permission questions from a Policy and a GrantStore.
type Service struct {
	policy *Policy
	grants GrantStore
	log    zerolog.Logger
}

// NewService combines the file policy with runtime grants. grants may be nil.
func NewService(policy *Policy, grants GrantStore, logger zerolog.Logger) *Service {
	if policy == nil {
		policy = &Policy{groups: map[string][]string{}, players: map[string][]string{}}
	}
	return &Service{policy: policy, grants: grants, log: logger}
}

// Has reports whether player holds node.
func (s *Service) Has(player, node string) bool {
	return Match(s.Nodes(player), node)
}

// Nodes returns every node player holds, sorted.
func (s *Service) Nodes(player string) []string {
	nodes := s.policy.Nodes(player)
	if s.grants != nil {
		granted, err := s.grants.Grants(player)
		if err != nil {
			s.log.Warn().Err(err).Str("player", player).Msg("failed to read runtime grants")
		}
		nodes = append(nodes, granted...)
	}
	nodes = dedupe(nodes)
	sort.Strings(nodes)
	return nodes
}

// Groups returns the file groups of player.
func (s *Service) Groups(player string) []string {
	return s.policy.Groups(player)
}

// Grant adds a runtime node.
func (s *Service) Grant(player, node string) (bool, error) {
	if s.grants == nil {
		return false, fmt.Errorf("runtime grants are not available")
	}
	node = strings.TrimSpace(node)
	if node == "" || strings.ContainsRune(node, ' ') {
		return false, fmt.Errorf("invalid permission node %q", node)
	}
	return s.grants.AddGrant(player, strings.ToLower(node))
}

// Revoke removes a runtime node. Nodes from the file cannot be revoked.
func (s *Service) Revoke(player, node string) (bool, error) {
	if s.grants == nil {
		return false, fmt.Errorf("runtime grants are not available")
	}
	return s.grants.RemoveGrant(player, strings.ToLower(strings.TrimSpace(node)))
}

func dedupe(nodes []string) []string {
	seen := make(map[string]bool, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
