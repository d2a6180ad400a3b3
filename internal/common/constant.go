package common

// StorageGroup is the shared storage namespace for the replica and scalar
// flags. Phone, watch and widget processes all read the same group so a
// read-only consumer can render stats without owning the database.
const StorageGroup = "group.com.dmitrijs2005.waterlog"
