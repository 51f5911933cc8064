package ast

// Kind identifies the variant of a node.
type Kind int

const (
	KindInvalid Kind = iota
	KindTranslationUnit
	KindSimpleDeclaration
	KindFunctionDefinition
	KindNamespaceDefinition
	KindNamespaceAlias
	KindUsingDirective
	KindUsingDeclaration
	KindAliasDeclaration
	KindTemplateDeclaration
	KindLinkageSpecification
	KindVisibilityLabel
	KindStaticAssert
	KindProblemDeclaration
	KindSimpleDeclSpec
	KindNamedTypeSpec
	KindElaboratedTypeSpec
	KindCompositeTypeSpec
	KindEnumSpec
	KindEnumerator
	KindBaseSpecifier
	KindDeclarator
	KindPointerOp
	KindArrayModifier
	KindParameterDeclaration
	KindTypeId
	KindTypeTemplateParameter
	KindEqualsInitializer
	KindConstructorInitializer
	KindInitializerList
	KindConstructorChainInitializer
	KindCompoundStatement
	KindDeclarationStatement
	KindExpressionStatement
	KindIfStatement
	KindWhileStatement
	KindDoStatement
	KindForStatement
	KindRangeForStatement
	KindSwitchStatement
	KindCaseStatement
	KindDefaultStatement
	KindBreakStatement
	KindContinueStatement
	KindReturnStatement
	KindGotoStatement
	KindLabelStatement
	KindNullStatement
	KindTryBlockStatement
	KindCatchHandler
	KindProblemStatement
	KindAmbiguousStatement
	KindIdExpression
	KindLiteralExpression
	KindUnaryExpression
	KindBinaryExpression
	KindConditionalExpression
	KindFunctionCallExpression
	KindArraySubscriptExpression
	KindFieldReference
	KindCastExpression
	KindTypeConstruction
	KindNewExpression
	KindDeleteExpression
	KindTypeIdExpression
	KindProblemExpression
	KindName
	KindQualifiedName
	KindTemplateId
	KindOperatorName
	KindConversionName
	KindImplicitName
	KindAmbiguousTemplateArgument
	KindMacroDefinition
	KindMacroExpansion
	KindIncludeDirective
	KindConditionalDirective
	KindComment
)

var kindNames = [...]string{
	KindInvalid:                     "invalid",
	KindTranslationUnit:             "translation-unit",
	KindSimpleDeclaration:           "simple-declaration",
	KindFunctionDefinition:          "function-definition",
	KindNamespaceDefinition:         "namespace-definition",
	KindNamespaceAlias:              "namespace-alias",
	KindUsingDirective:              "using-directive",
	KindUsingDeclaration:            "using-declaration",
	KindAliasDeclaration:            "alias-declaration",
	KindTemplateDeclaration:         "template-declaration",
	KindLinkageSpecification:        "linkage-specification",
	KindVisibilityLabel:             "visibility-label",
	KindStaticAssert:                "static-assert",
	KindProblemDeclaration:          "problem-declaration",
	KindSimpleDeclSpec:              "simple-decl-specifier",
	KindNamedTypeSpec:               "named-type-specifier",
	KindElaboratedTypeSpec:          "elaborated-type-specifier",
	KindCompositeTypeSpec:           "composite-type-specifier",
	KindEnumSpec:                    "enum-specifier",
	KindEnumerator:                  "enumerator",
	KindBaseSpecifier:               "base-specifier",
	KindDeclarator:                  "declarator",
	KindPointerOp:                   "pointer-operator",
	KindArrayModifier:               "array-modifier",
	KindParameterDeclaration:        "parameter-declaration",
	KindTypeId:                      "type-id",
	KindTypeTemplateParameter:       "type-template-parameter",
	KindEqualsInitializer:           "equals-initializer",
	KindConstructorInitializer:      "constructor-initializer",
	KindInitializerList:             "initializer-list",
	KindConstructorChainInitializer: "constructor-chain-initializer",
	KindCompoundStatement:           "compound-statement",
	KindDeclarationStatement:        "declaration-statement",
	KindExpressionStatement:         "expression-statement",
	KindIfStatement:                 "if-statement",
	KindWhileStatement:              "while-statement",
	KindDoStatement:                 "do-statement",
	KindForStatement:                "for-statement",
	KindRangeForStatement:           "range-for-statement",
	KindSwitchStatement:             "switch-statement",
	KindCaseStatement:               "case-statement",
	KindDefaultStatement:            "default-statement",
	KindBreakStatement:              "break-statement",
	KindContinueStatement:           "continue-statement",
	KindReturnStatement:             "return-statement",
	KindGotoStatement:               "goto-statement",
	KindLabelStatement:              "label-statement",
	KindNullStatement:               "null-statement",
	KindTryBlockStatement:           "try-block-statement",
	KindCatchHandler:                "catch-handler",
	KindProblemStatement:            "problem-statement",
	KindAmbiguousStatement:          "ambiguous-statement",
	KindIdExpression:                "id-expression",
	KindLiteralExpression:           "literal-expression",
	KindUnaryExpression:             "unary-expression",
	KindBinaryExpression:            "binary-expression",
	KindConditionalExpression:       "conditional-expression",
	KindFunctionCallExpression:      "function-call-expression",
	KindArraySubscriptExpression:    "array-subscript-expression",
	KindFieldReference:              "field-reference",
	KindCastExpression:              "cast-expression",
	KindTypeConstruction:            "type-construction",
	KindNewExpression:               "new-expression",
	KindDeleteExpression:            "delete-expression",
	KindTypeIdExpression:            "type-id-expression",
	KindProblemExpression:           "problem-expression",
	KindName:                        "name",
	KindQualifiedName:               "qualified-name",
	KindTemplateId:                  "template-id",
	KindOperatorName:                "operator-name",
	KindConversionName:              "conversion-name",
	KindImplicitName:                "implicit-name",
	KindAmbiguousTemplateArgument:   "ambiguous-template-argument",
	KindMacroDefinition:             "macro-definition",
	KindMacroExpansion:              "macro-expansion",
	KindIncludeDirective:            "include-directive",
	KindConditionalDirective:        "conditional-directive",
	KindComment:                     "comment",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

func (*TranslationUnit) Kind() Kind             { return KindTranslationUnit }
func (*SimpleDeclaration) Kind() Kind           { return KindSimpleDeclaration }
func (*FunctionDefinition) Kind() Kind          { return KindFunctionDefinition }
func (*NamespaceDefinition) Kind() Kind         { return KindNamespaceDefinition }
func (*NamespaceAlias) Kind() Kind              { return KindNamespaceAlias }
func (*UsingDirective) Kind() Kind              { return KindUsingDirective }
func (*UsingDeclaration) Kind() Kind            { return KindUsingDeclaration }
func (*AliasDeclaration) Kind() Kind            { return KindAliasDeclaration }
func (*TemplateDeclaration) Kind() Kind         { return KindTemplateDeclaration }
func (*LinkageSpecification) Kind() Kind        { return KindLinkageSpecification }
func (*VisibilityLabel) Kind() Kind             { return KindVisibilityLabel }
func (*StaticAssert) Kind() Kind                { return KindStaticAssert }
func (*ProblemDeclaration) Kind() Kind          { return KindProblemDeclaration }
func (*SimpleDeclSpec) Kind() Kind              { return KindSimpleDeclSpec }
func (*NamedTypeSpec) Kind() Kind               { return KindNamedTypeSpec }
func (*ElaboratedTypeSpec) Kind() Kind          { return KindElaboratedTypeSpec }
func (*CompositeTypeSpec) Kind() Kind           { return KindCompositeTypeSpec }
func (*EnumSpec) Kind() Kind                    { return KindEnumSpec }
func (*Enumerator) Kind() Kind                  { return KindEnumerator }
func (*BaseSpecifier) Kind() Kind               { return KindBaseSpecifier }
func (*Declarator) Kind() Kind                  { return KindDeclarator }
func (*PointerOp) Kind() Kind                   { return KindPointerOp }
func (*ArrayModifier) Kind() Kind               { return KindArrayModifier }
func (*ParameterDeclaration) Kind() Kind        { return KindParameterDeclaration }
func (*TypeId) Kind() Kind                      { return KindTypeId }
func (*TypeTemplateParameter) Kind() Kind       { return KindTypeTemplateParameter }
func (*EqualsInitializer) Kind() Kind           { return KindEqualsInitializer }
func (*ConstructorInitializer) Kind() Kind      { return KindConstructorInitializer }
func (*InitializerList) Kind() Kind             { return KindInitializerList }
func (*ConstructorChainInitializer) Kind() Kind { return KindConstructorChainInitializer }
func (*CompoundStatement) Kind() Kind           { return KindCompoundStatement }
func (*DeclarationStatement) Kind() Kind        { return KindDeclarationStatement }
func (*ExpressionStatement) Kind() Kind         { return KindExpressionStatement }
func (*IfStatement) Kind() Kind                 { return KindIfStatement }
func (*WhileStatement) Kind() Kind              { return KindWhileStatement }
func (*DoStatement) Kind() Kind                 { return KindDoStatement }
func (*ForStatement) Kind() Kind                { return KindForStatement }
func (*RangeForStatement) Kind() Kind           { return KindRangeForStatement }
func (*SwitchStatement) Kind() Kind             { return KindSwitchStatement }
func (*CaseStatement) Kind() Kind               { return KindCaseStatement }
func (*DefaultStatement) Kind() Kind            { return KindDefaultStatement }
func (*BreakStatement) Kind() Kind              { return KindBreakStatement }
func (*ContinueStatement) Kind() Kind           { return KindContinueStatement }
func (*ReturnStatement) Kind() Kind             { return KindReturnStatement }
func (*GotoStatement) Kind() Kind               { return KindGotoStatement }
func (*LabelStatement) Kind() Kind              { return KindLabelStatement }
func (*NullStatement) Kind() Kind               { return KindNullStatement }
func (*TryBlockStatement) Kind() Kind           { return KindTryBlockStatement }
func (*CatchHandler) Kind() Kind                { return KindCatchHandler }
func (*ProblemStatement) Kind() Kind            { return KindProblemStatement }
func (*AmbiguousStatement) Kind() Kind          { return KindAmbiguousStatement }
func (*IdExpression) Kind() Kind                { return KindIdExpression }
func (*LiteralExpression) Kind() Kind           { return KindLiteralExpression }
func (*UnaryExpression) Kind() Kind             { return KindUnaryExpression }
func (*BinaryExpression) Kind() Kind            { return KindBinaryExpression }
func (*ConditionalExpression) Kind() Kind       { return KindConditionalExpression }
func (*FunctionCallExpression) Kind() Kind      { return KindFunctionCallExpression }
func (*ArraySubscriptExpression) Kind() Kind    { return KindArraySubscriptExpression }
func (*FieldReference) Kind() Kind              { return KindFieldReference }
func (*CastExpression) Kind() Kind              { return KindCastExpression }
func (*TypeConstruction) Kind() Kind            { return KindTypeConstruction }
func (*NewExpression) Kind() Kind               { return KindNewExpression }
func (*DeleteExpression) Kind() Kind            { return KindDeleteExpression }
func (*TypeIdExpression) Kind() Kind            { return KindTypeIdExpression }
func (*ProblemExpression) Kind() Kind           { return KindProblemExpression }
func (*Name) Kind() Kind                        { return KindName }
func (*QualifiedName) Kind() Kind               { return KindQualifiedName }
func (*TemplateId) Kind() Kind                  { return KindTemplateId }
func (*OperatorName) Kind() Kind                { return KindOperatorName }
func (*ConversionName) Kind() Kind              { return KindConversionName }
func (*ImplicitName) Kind() Kind                { return KindImplicitName }
func (*AmbiguousTemplateArgument) Kind() Kind   { return KindAmbiguousTemplateArgument }
func (*MacroDefinition) Kind() Kind             { return KindMacroDefinition }
func (*MacroExpansion) Kind() Kind              { return KindMacroExpansion }
func (*IncludeDirective) Kind() Kind            { return KindIncludeDirective }
func (*ConditionalDirective) Kind() Kind        { return KindConditionalDirective }
func (*Comment) Kind() Kind                     { return KindComment }
