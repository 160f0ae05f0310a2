package sqlassets

import _ "embed"

//go:embed schema/core/taxonomy.sql
var TaxonomySQL string

//go:embed schema/core/panchayaths.sql
var PanchayathsSQL string

//go:embed schema/core/registrations.sql
var RegistrationsSQL string

//go:embed schema/core/transfer_requests.sql
var TransferRequestsSQL string
