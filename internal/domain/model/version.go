package model

// ServerVersion is reported to stream clients in the connected acknowledgement.
var ServerVersion = "0.0.0"
