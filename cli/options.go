package cli

// Options is the root for chamactl. Struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	ImportMembers *ImportMembersCmd `command:"import-members" description:"Merge member contributions from a CSV sheet"`
	ImportReports *ImportReportsCmd `command:"import-reports" description:"Upsert monthly balance sheets from a CSV sheet"`
	Export        *ExportCmd        `command:"export"         description:"Write the stored document or its summary as JSON or YAML"`
	Token         *TokenCmd         `command:"token"          description:"Mint a bearer token for the write routes"`
}

// Init instantiates the sub-command named by the first argument so go-flags
// can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "import-members":
		o.ImportMembers = &ImportMembersCmd{}
	case "import-reports":
		o.ImportReports = &ImportReportsCmd{}
	case "export":
		o.Export = &ExportCmd{}
	case "token":
		o.Token = &TokenCmd{}
	}
}
