package main

import "github.com/ardiansyahn/crm-backoffice/cmd"

func main() {
	cmd.Execute()
}
