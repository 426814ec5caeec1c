package internal

import (
	"chat-relay/directory"
	"chat-relay/domain/chat"
	"io"

	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// RenderAccounts prints every known user with its presence and address.
func RenderAccounts(w io.Writer, accounts []chat.UserAccount) {
	table := newTable(w, "Username", "Status", "Address")
	for _, account := range accounts {
		address := account.Address
		if address == "" {
			address = "-"
		}
		table.Append([]string{account.Username, account.Status(), address})
	}
	table.Render()
}

// RenderZones prints the labels of the delegated child zones.
func RenderZones(w io.Writer, zones []string) {
	table := newTable(w, "Zone")
	for _, zone := range zones {
		table.Append([]string{zone})
	}
	table.Render()
}

// RenderAddresses prints the local address table sorted by username.
func RenderAddresses(w io.Writer, addresses map[string]string) {
	table := newTable(w, "Username", "Address")
	for _, name := range directory.SortedNames(addresses) {
		table.Append([]string{name, addresses[name]})
	}
	table.Render()
}
