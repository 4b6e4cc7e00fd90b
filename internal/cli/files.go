package cli

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
)

func (a *App) Upload(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Path of the file to upload", os.Stdout)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("reading %s: %v", path, err)
		return err
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uri, err := a.client.AddFile(ctx, name, contentType, content, false)
	if err != nil {
		log.Printf("upload failed: %v", err)
		return err
	}
	printlnFn("Uploaded", name, "->", uri)
	return nil
}

func (a *App) Download(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "File name", os.Stdout)
	if err != nil {
		return err
	}

	content, contentType, err := a.client.FileContent(ctx, name)
	if err != nil {
		log.Printf("download failed: %v", err)
		return err
	}

	target := filepath.Base(name)
	if err := os.WriteFile(target, content, 0o600); err != nil {
		log.Printf("writing %s: %v", target, err)
		return err
	}
	printlnFn("Saved", target, fmt.Sprintf("(%s, %d bytes)", contentType, len(content)))
	return nil
}

func (a *App) List(ctx context.Context) error {
	infos, err := a.client.Files(ctx)
	if err != nil {
		log.Printf("listing files failed: %v", err)
		return err
	}
	for _, info := range infos {
		printlnFn(fmt.Sprintf("%s  %s  %.2f kB", info.Name, info.ContentType, info.SizeKb))
	}
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "File name to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.client.DeleteFile(ctx, name); err != nil {
		log.Printf("delete failed: %v", err)
		return err
	}
	printlnFn("Deleted", name)
	return nil
}

func (a *App) Outputs(ctx context.Context) error {
	infos, err := a.client.Outputs(ctx)
	if err != nil {
		log.Printf("listing outputs failed: %v", err)
		return err
	}
	for _, info := range infos {
		printlnFn(fmt.Sprintf("%s  %s  %.2f kB", info.Name, info.ContentType, info.SizeKb))
	}
	return nil
}

func (a *App) GetOutput(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Output name", os.Stdout)
	if err != nil {
		return err
	}

	content, contentType, err := a.client.OutputContent(ctx, name)
	if err != nil {
		log.Printf("download failed: %v", err)
		return err
	}

	target := filepath.Base(name)
	if err := os.WriteFile(target, content, 0o600); err != nil {
		log.Printf("writing %s: %v", target, err)
		return err
	}
	printlnFn("Saved", target, fmt.Sprintf("(%s, %d bytes)", contentType, len(content)))
	return nil
}

func (a *App) DeleteOutput(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Output name to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.client.DeleteOutput(ctx, name); err != nil {
		log.Printf("delete failed: %v", err)
		return err
	}
	printlnFn("Deleted", name)
	return nil
}
