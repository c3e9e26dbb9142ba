package autofix

// Static GL mapping rules for the standard restaurant/retail chart of
// accounts. Codes follow the 1xxxxxx assets / 2xxxxxx liabilities /
// 4xxxxxx revenue / 5xxxxxx cost-of-sales / 6xxxxxx expenses convention.

// preferredAccounts maps a transaction type to its preferred GL codes in
// priority order. The proposer returns the first code that exists in the
// organization's chart of accounts.
var preferredAccounts = map[string][]string{
	"SALES_ORDER":    {"4001000", "4002000", "4003000"},
	"SALES_INVOICE":  {"4001000", "1002000"},
	"PURCHASE_ORDER": {"5001000", "5002000", "5003000"},
	"AP_INVOICE":     {"2001000", "5001000"},
	"PAYMENT":        {"1001000", "1002000"},
	"EXPENSE":        {"6001000", "6002000"},
	"JOURNAL_ENTRY":  {"1001000", "4001000"},
}

// typePrefixes maps a transaction type to the GL code prefix class its
// entries are expected to land in.
var typePrefixes = map[string]string{
	"SALES_ORDER":    "4",
	"SALES_INVOICE":  "4",
	"PURCHASE_ORDER": "5",
	"AP_INVOICE":     "2",
	"PAYMENT":        "1",
	"EXPENSE":        "6",
}

// commonAccounts is the allowlist of codes present in virtually every
// deployment; suggesting one of them earns a confidence bonus.
var commonAccounts = map[string]bool{
	"1001000": true, // cash
	"1002000": true, // accounts receivable
	"2001000": true, // accounts payable
	"4001000": true, // sales revenue
	"5001000": true, // cost of goods sold
	"6001000": true, // operating expenses
}
