package behavior

// Node is one built behavior. Execute consumes the bits a client computed
// for the node; Calculate decides the outcome on the server and writes the
// same bits. Both walk the same shape so either side can decode the other.
type Node interface {
	BehaviorID() uint32
	Template() TemplateID
	Execute(ctx *Context, br Branch) error
	Calculate(ctx *Context, br Branch)

	node() *info
	build(b *builder)
}

// Syncer is a node that suspends part of its work behind a sync handle.
type Syncer interface {
	Node
	Sync(ctx *Context, br Branch) error
}

// info is embedded in every node. Its methods are the defaults for nodes
// with no parameters and no bits on the wire.
type info struct {
	id       uint32
	template TemplateID
	effect   int32
}

func (i *info) BehaviorID() uint32   { return i.id }
func (i *info) Template() TemplateID { return i.template }
func (i *info) node() *info          { return i }

func (i *info) build(*builder)                 {}
func (i *info) Execute(*Context, Branch) error { return nil }
func (i *info) Calculate(*Context, Branch)     {}

// empty stands in for missing, unknown or cyclic behaviors.
type empty struct{ info }

// Empty is the shared no-op node for behavior id 0.
var Empty Node = &empty{}

func newEmpty(id uint32) Node {
	return &empty{info{id: id, template: TemplateEmpty}}
}

func isEmpty(n Node) bool {
	_, ok := n.(*empty)
	return ok
}
