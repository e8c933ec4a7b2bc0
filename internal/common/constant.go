package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the bridge
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// BackupNameMarker is the substring every remote backup object name carries.
// Remote lookups filter on it, so it must never change between releases.
const BackupNameMarker = "kolp_backup"

// BackupFileExt is the file extension of a container written to disk.
const BackupFileExt = ".klp"
