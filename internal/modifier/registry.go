package modifier

import (
	"github.com/toyz/dbweave/internal/utils"
)

// Registry maps qualified type names to their modifier. It is built once at
// process start and handed to the Transformer.
type Registry struct {
	modifiers *utils.BaseRegistry[string, Modifier]
}

// NewRegistry creates an empty registry that rejects duplicate type names
func NewRegistry() *Registry {
	modifiers := utils.NewBaseRegistry[string, Modifier]("modifier", "type name")
	modifiers.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[Modifier]("modifier", "type name"),
		utils.NoDuplicateValidator[Modifier]("modifier"),
	))
	return &Registry{modifiers: modifiers}
}

// Register adds m under its target type
func (r *Registry) Register(m Modifier) error {
	return r.modifiers.Register(m.TargetType(), m)
}

// Lookup returns the modifier for typeName
func (r *Registry) Lookup(typeName string) (Modifier, bool) {
	return r.modifiers.Get(typeName)
}

// TypeNames returns every registered type name sorted
func (r *Registry) TypeNames() []string {
	return utils.SortedKeys(r.modifiers)
}

// Len returns the number of registered modifiers
func (r *Registry) Len() int {
	return r.modifiers.Size()
}
