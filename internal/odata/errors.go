package odata

import "errors"

// ErrQueryConditionInvalid is returned for any filter the grammar rejects:
// unknown identifiers under a table-name query, a binary/X literal in any
// position, unbalanced parens, or a
// dangling operator. Named after the wire-level error the store surfaces for
// a malformed $filter.
var ErrQueryConditionInvalid = errors.New("odata: query-condition-invalid")
