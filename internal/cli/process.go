package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) Tools(ctx context.Context) error {
	contentType, err := GetSimpleText(a.reader, "Content type (empty for multi-purpose tools only)", os.Stdout)
	if err != nil {
		return err
	}

	tools, err := a.client.Tools(ctx, contentType)
	if err != nil {
		log.Printf("listing tools failed: %v", err)
		return err
	}
	for _, tool := range tools {
		printlnFn(fmt.Sprintf("%s - %s", tool.Name, tool.BriefDescription))
		printlnFn("  " + tool.LongDescription)
	}
	return nil
}

func (a *App) Process(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "File name", os.Stdout)
	if err != nil {
		return err
	}
	tool, err := GetSimpleText(a.reader, "Tool name", os.Stdout)
	if err != nil {
		return err
	}

	result, err := a.client.Process(ctx, name, tool)
	if err != nil {
		log.Printf("processing failed: %v", err)
		return err
	}
	printlnFn("Done:", result.OutputURI, "("+result.ContentType+")")
	return nil
}
