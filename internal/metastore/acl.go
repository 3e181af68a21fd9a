package metastore

import "github.com/google/uuid"

// defaultACLID fills in an opaque policy identifier when the caller didn't
// name one, since every stored access policy needs some identifier even
// when only permissions/timestamps were supplied.
func defaultACLID(acl *TableACL) *TableACL {
	if acl == nil || acl.ID != "" {
		return acl
	}
	out := *acl
	out.ID = uuid.NewString()
	return &out
}
