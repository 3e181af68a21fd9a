package metastore

const (
	// TablesCollection holds one row per existing table, keyed by (Account, Table).
	TablesCollection = "$TABLES_COLLECTION$"
	// ServicesCollection holds one row per account's service properties.
	ServicesCollection = "$SERVICES_COLLECTION$"

	// QueryResultMaxNum is the default page size queryTable/queryTableEntities
	// cap a single page at when the caller doesn't ask for fewer.
	QueryResultMaxNum = 1000
)

func entityCollectionName(account, table string) string {
	return account + "$" + table
}
