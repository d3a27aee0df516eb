package main

import "github.com/yungbote/moralgraph-backend/cmd/moralctl/cmd"

func main() {
	cmd.Execute()
}
