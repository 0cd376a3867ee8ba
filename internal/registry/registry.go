package registry

import (
	"fmt"
	"os"
	"strings"

	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Registry is the static list of candidate dust tokens. It is loaded once at
// startup and read-only afterwards; output ordering everywhere in the pipeline
// follows registry order.
type Registry struct {
	tokens    []entity.TokenDescriptor
	byAddress map[string]entity.TokenDescriptor
}

type tokensFile struct {
	Tokens []entity.TokenDescriptor `yaml:"tokens"`
}

// Load reads the token registry from a YAML file and validates it.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens file %s: %w", path, err)
	}

	var file tokensFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokens file %s: %w", path, err)
	}

	return New(file.Tokens)
}

// New builds a registry from descriptors, rejecting malformed or duplicate entries.
func New(tokens []entity.TokenDescriptor) (*Registry, error) {
	r := &Registry{
		tokens:    make([]entity.TokenDescriptor, 0, len(tokens)),
		byAddress: make(map[string]entity.TokenDescriptor, len(tokens)),
	}
	for _, t := range tokens {
		if !utils.IsHexAddress(t.Address) {
			return nil, fmt.Errorf("token %q has invalid address %q", t.Symbol, t.Address)
		}
		if strings.EqualFold(t.Address, entity.ZeroAddress) {
			return nil, fmt.Errorf("token %q uses the zero address", t.Symbol)
		}
		if t.Symbol == "" {
			return nil, fmt.Errorf("token %s is missing a symbol", t.Address)
		}
		if t.PriceFeedID == "" {
			return nil, fmt.Errorf("token %s is missing a priceFeedId", t.Symbol)
		}
		key := strings.ToLower(t.Address)
		if _, exists := r.byAddress[key]; exists {
			return nil, fmt.Errorf("duplicate token address %s", t.Address)
		}
		r.byAddress[key] = t
		r.tokens = append(r.tokens, t)
	}
	if len(r.tokens) == 0 {
		return nil, fmt.Errorf("token registry is empty")
	}
	return r, nil
}

// Tokens returns the descriptors in registry order.
func (r *Registry) Tokens() []entity.TokenDescriptor {
	out := make([]entity.TokenDescriptor, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// ByAddress looks up a descriptor by chain address, case-insensitively.
func (r *Registry) ByAddress(address string) (entity.TokenDescriptor, bool) {
	t, ok := r.byAddress[strings.ToLower(address)]
	return t, ok
}

// PriceFeedIDs returns the distinct price-feed ids in registry order.
func (r *Registry) PriceFeedIDs() []string {
	seen := make(map[string]struct{}, len(r.tokens))
	ids := make([]string, 0, len(r.tokens))
	for _, t := range r.tokens {
		if _, ok := seen[t.PriceFeedID]; ok {
			continue
		}
		seen[t.PriceFeedID] = struct{}{}
		ids = append(ids, t.PriceFeedID)
	}
	return ids
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	return len(r.tokens)
}
