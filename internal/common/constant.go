package common

import "time"

// TokenExpiryBuffer is subtracted from the stored access-token expiry when
// deciding whether a refresh is needed. A token inside the buffer is treated
// as already expired so that long-running operations do not start with a
// token about to die mid-flight.
const TokenExpiryBuffer = 300 * time.Second

// MinUpdateCheckInterval is the lowest allowed granularity for the periodic
// update scan throttle.
const MinUpdateCheckInterval = time.Hour
