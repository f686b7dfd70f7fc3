package ast

type (
	// главные сущности
	FileID uint32
	DeclID uint32
	StmtID uint32
	ExprID uint32
	TypeID uint32
	// индекс в арене полезной нагрузки конкретного вида узла
	PayloadID uint32
)

const (
	NoFileID    FileID    = 0
	NoDeclID    DeclID    = 0
	NoStmtID    StmtID    = 0
	NoExprID    ExprID    = 0
	NoTypeID    TypeID    = 0
	NoPayloadID PayloadID = 0
)

func (id FileID) IsValid() bool    { return id != NoFileID }
func (id DeclID) IsValid() bool    { return id != NoDeclID }
func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id TypeID) IsValid() bool    { return id != NoTypeID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }

// NodeKind is the top-level variant of a syntax node.
type NodeKind uint8

const (
	NodeNone NodeKind = iota
	NodeFile
	NodeDecl
	NodeStmt
	NodeExpr
	NodeType
)

func (k NodeKind) String() string {
	switch k {
	case NodeFile:
		return "file"
	case NodeDecl:
		return "decl"
	case NodeStmt:
		return "stmt"
	case NodeExpr:
		return "expr"
	case NodeType:
		return "type"
	}
	return "none"
}

// NodeRef is a weak handle to any node. Parents are stored as NodeRefs and
// never own their target.
type NodeRef struct {
	Kind NodeKind
	ID   uint32
}

func (r NodeRef) IsValid() bool { return r.Kind != NodeNone && r.ID != 0 }

func FileRef(id FileID) NodeRef { return NodeRef{Kind: NodeFile, ID: uint32(id)} }
func DeclRef(id DeclID) NodeRef { return NodeRef{Kind: NodeDecl, ID: uint32(id)} }
func StmtRef(id StmtID) NodeRef { return NodeRef{Kind: NodeStmt, ID: uint32(id)} }
func ExprRef(id ExprID) NodeRef { return NodeRef{Kind: NodeExpr, ID: uint32(id)} }
func TypeRef(id TypeID) NodeRef { return NodeRef{Kind: NodeType, ID: uint32(id)} }

func (r NodeRef) Decl() DeclID {
	if r.Kind != NodeDecl {
		return NoDeclID
	}
	return DeclID(r.ID)
}

func (r NodeRef) Stmt() StmtID {
	if r.Kind != NodeStmt {
		return NoStmtID
	}
	return StmtID(r.ID)
}

func (r NodeRef) Expr() ExprID {
	if r.Kind != NodeExpr {
		return NoExprID
	}
	return ExprID(r.ID)
}
