// Package registry holds the two closed, case-insensitive identifier sets
// the pattern parser uses to disambiguate a bare identifier: ATTRIBUTE_NAMES
// (known scalar field names) and NODE_TYPE_NAMES (known AST node-type
// names). Both are immutable once the package is initialized; there is no
// mutable registration API, unlike a plugin-style registry, because the
// identifier universe here is fixed by the PostgreSQL grammar rather than
// extensible at runtime.
package registry

import "strings"

// Kind classifies a bare identifier encountered by the pattern parser.
type Kind int

const (
	// Literal is the fallback classification: an identifier that matches
	// neither known set is treated as a free-text literal.
	Literal Kind = iota
	Attribute
	NodeType
)

func (k Kind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case NodeType:
		return "node-type"
	default:
		return "literal"
	}
}

// attributeNames is the closed set of known scalar field names surfaced as
// virtual attribute nodes by internal/ast. Names are the lower-cased Go
// struct field names pg_query_go generates from libpg_query's parsenodes,
// e.g. RangeVar.Relname -> "relname".
var attributeNames = buildSet([]string{
	"relname", "schemaname", "catalogname", "aliasname", "colname", "sval",
	"ival", "fval", "boolval", "bsval", "str", "defname", "defnamespace",
	"funcname", "objname", "indexname", "conname", "constrname", "cursor_name",
	"portalname", "stmtname", "extname", "fdwname", "servername", "rolename",
	"newname", "oldname", "tablespacename", "accessmethod", "amname",
	"typname", "typemodifier", "typname_array", "name", "label", "arg",
	"location", "val", "xmloption", "opt", "option", "is_local",
	"is_from_type", "is_not_null", "is_grant", "grantee_type", "grant_option",
	"behavior", "missing_ok", "if_not_exists", "concurrent", "unique",
	"primary", "deferrable", "initdeferred", "skip_validation",
	"initially_valid", "is_no_inherit", "replace", "temporary", "if_exists",
	"drop_behavior", "removeType", "objectType", "renameType", "relkind",
	"relpersistence", "kind", "strategy", "frameOptions", "ordering",
	"sortby_dir", "sortby_nulls", "nulls_first", "cmptype", "jointype",
	"is_natural", "usingClause", "quote", "withCheckOption", "relation",
	"schema", "tableElts", "inhRelations", "partbound", "partspec",
	"ofTypename", "constraints", "options", "oncommit", "tablespacename_opt",
	"accessMethod", "cols", "selectStmt", "override", "onConflictClause",
	"returningList", "withClause", "targetList", "fromClause", "whereClause",
	"groupClause", "havingClause", "windowClause", "valuesLists",
	"sortClause", "limitOffset", "limitCount", "limitOption", "lockingClause",
	"distinctClause", "intoClause", "op", "all", "larg", "rarg", "ctes",
	"recursive", "cte_colnames", "cte_coltypes", "cte_coltypemods",
	"cte_colcollations", "ctequery", "aliascolnames", "indirection",
	"resname", "reslocation", "a_expr_kind", "lexpr", "rexpr", "typecast_arg",
	"typeName", "func_variadic", "over", "agg_order", "agg_filter",
	"agg_within_group", "agg_star", "agg_distinct", "args", "xpr",
	"consttype", "consttypmod", "constisnull", "constvalue", "paramkind",
	"paramid", "fieldnum", "resulttype", "use_json_format", "numeric_only",
	"step", "start", "stop", "is_percent", "units", "funcformat", "funcresulttype",
})

// nodeTypeNames is the closed set of known AST node-type names (protobuf
// struct names generated for libpg_query's node tags).
var nodeTypeNames = buildSet([]string{
	"SelectStmt", "InsertStmt", "UpdateStmt", "DeleteStmt", "MergeStmt",
	"CreateStmt", "AlterTableStmt", "AlterTableCmd", "DropStmt",
	"TruncateStmt", "CommentStmt", "RenameStmt", "GrantStmt", "GrantRoleStmt",
	"CreateRoleStmt", "AlterRoleStmt", "DropRoleStmt", "CreateSchemaStmt",
	"CreateFunctionStmt", "AlterFunctionStmt", "DoStmt", "CallStmt",
	"CreateTrigStmt", "CreateEventTrigStmt", "AlterEventTrigStmt",
	"CreatePLangStmt", "CreateDomainStmt", "AlterDomainStmt",
	"CreateSeqStmt", "AlterSeqStmt", "CreateTableAsStmt", "RefreshMatViewStmt",
	"CreateExtensionStmt", "AlterExtensionStmt", "CreateFdwStmt",
	"CreateForeignServerStmt", "CreateUserMappingStmt",
	"CreateForeignTableStmt", "ImportForeignSchemaStmt", "CreatePolicyStmt",
	"AlterPolicyStmt", "CreatePublicationStmt", "AlterPublicationStmt",
	"CreateSubscriptionStmt", "AlterSubscriptionStmt", "DropSubscriptionStmt",
	"CreateStatsStmt", "AlterStatsStmt", "CreateAmStmt",
	"CreateCastStmt", "CreateOpClassStmt", "CreateOpFamilyStmt",
	"AlterOpFamilyStmt", "CreateConversionStmt", "CreateTableSpaceStmt",
	"DropTableSpaceStmt", "AlterTableSpaceOptionsStmt",
	"AlterTableMoveAllStmt", "DropOwnedStmt", "ReassignOwnedStmt",
	"LockStmt", "ConstraintsSetStmt", "CheckPointStmt", "ReindexStmt",
	"VacuumStmt", "VacuumRelation", "ExplainStmt", "PrepareStmt",
	"ExecuteStmt", "DeallocateStmt", "DeclareCursorStmt", "ClosePortalStmt",
	"FetchStmt", "IndexStmt", "CreateRangeStmt", "AlterEnumStmt",
	"ViewStmt", "LoadStmt", "CreatedbStmt", "AlterDatabaseStmt",
	"AlterDatabaseRefreshCollStmt", "AlterDatabaseSetStmt", "DropdbStmt",
	"AlterSystemStmt", "ClusterStmt", "CreateGroupStmt",
	"AlterRoleSetStmt", "AlterObjectDependsStmt", "AlterObjectSchemaStmt",
	"AlterOwnerStmt", "AlterOperatorStmt", "AlterTypeStmt", "SecLabelStmt",
	"TransactionStmt", "CompositeTypeStmt", "CreateEnumStmt",
	"NotifyStmt", "ListenStmt", "UnlistenStmt", "DefineStmt",
	"DiscardStmt", "RuleStmt", "VariableSetStmt", "VariableShowStmt",
	"ReturnStmt", "PLAssignStmt",

	"A_Const", "A_Expr", "A_Indices", "A_Indirection", "A_ArrayExpr",
	"A_Star", "Alias", "RangeVar", "TableFunc", "Expr", "Var", "Param",
	"Aggref", "GroupingFunc", "WindowFunc", "SubscriptingRef", "FuncExpr",
	"NamedArgExpr", "OpExpr", "DistinctExpr", "NullIfExpr", "ScalarArrayOpExpr",
	"BoolExpr", "SubLink", "SubPlan", "AlternativeSubPlan", "FieldSelect",
	"FieldStore", "RelabelType", "CoerceViaIO", "ArrayCoerceExpr",
	"ConvertRowtypeExpr", "CollateExpr", "CaseExpr", "CaseWhen",
	"CaseTestExpr", "ArrayExpr", "RowExpr", "RowCompareExpr", "CoalesceExpr",
	"MinMaxExpr", "SQLValueFunction", "XmlExpr", "NullTest", "BooleanTest",
	"CoerceToDomain", "CoerceToDomainValue", "SetToDefault", "CurrentOfExpr",
	"NextValueExpr", "InferenceElem", "TargetEntry", "RangeTblRef",
	"JoinExpr", "FromExpr", "OnConflictExpr", "IntoClause", "RangeSubselect",
	"RangeFunction", "RangeTableSample", "RangeTableFunc",
	"RangeTableFuncCol", "TypeName", "ColumnDef", "IndexElem", "StatsElem",
	"Constraint", "DefElem", "LockingClause", "XmlSerialize", "ResTarget",
	"MultiAssignRef", "SortBy", "WindowDef", "RangeTblEntry",
	"RangeTblFunction", "TableSampleClause", "WithCheckOption",
	"SortGroupClause", "GroupingSet", "WindowClause", "RowMarkClause",
	"WithClause", "InferClause", "OnConflictClause", "CTESearchClause",
	"CTECycleClause", "CommonTableExpr", "MergeWhenClause", "MergeAction",
	"TriggerTransition", "PartitionElem", "PartitionSpec",
	"PartitionBoundSpec", "PartitionRangeDatum", "PartitionCmd",
	"RangeTblEntry", "RTEPermissionInfo", "Query", "RawStmt", "ObjectWithArgs",
	"AccessPriv", "CreateOpClassItem", "TableLikeClause", "FunctionParameter",
	"LockingClause", "RowExpr", "InlineCodeBlock", "CallContext",

	"String", "Integer", "Float", "Boolean", "BitString", "List", "OidList",
	"IntList", "Null", "ParamRef", "ColumnRef", "FuncCall", "TypeCast",
	"CollateClause",
})

func buildSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

// Classify reports whether ident denotes a known attribute name, a known
// node-type name, or (when it matches neither set) a free literal. Lookup is
// case-insensitive and O(1) average. A name present in both sets (e.g.
// "SelectStmt" / "selectStmt") classifies as a node type.
func Classify(ident string) Kind {
	key := strings.ToLower(ident)
	if _, ok := nodeTypeNames[key]; ok {
		return NodeType
	}
	if _, ok := attributeNames[key]; ok {
		return Attribute
	}
	return Literal
}

// IsAttribute reports whether ident is a known attribute name.
func IsAttribute(ident string) bool { return Classify(ident) == Attribute }

// IsNodeType reports whether ident is a known node-type name.
func IsNodeType(ident string) bool { return Classify(ident) == NodeType }
