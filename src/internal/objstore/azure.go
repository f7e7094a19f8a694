// FILE: trafficview/src/internal/objstore/azure.go
package objstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/lixenwraith/log"
)

// AzureStore lists and downloads blobs from one Azure Blob Storage container
type AzureStore struct {
	client    *azblob.Client
	container string
	prefix    string
	logger    *log.Logger
}

// NewAzureStore authenticates with a connection string when present,
// otherwise with the account shared key.
func NewAzureStore(cfg config.StorageConfig, logger *log.Logger) (*AzureStore, error) {
	if strings.TrimSpace(cfg.Container) == "" {
		return nil, &core.ConfigError{Field: "storage.container", Reason: "required"}
	}

	var (
		client *azblob.Client
		err    error
	)

	if cfg.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, &core.ConfigError{Field: "storage.connection_string", Reason: err.Error()}
		}
	} else {
		if cfg.Account == "" || cfg.Key == "" {
			return nil, &core.ConfigError{Field: "storage.account", Reason: "account and key required without connection_string"}
		}
		cred, credErr := azblob.NewSharedKeyCredential(cfg.Account, cfg.Key)
		if credErr != nil {
			return nil, &core.ConfigError{Field: "storage.key", Reason: credErr.Error()}
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL(cfg), cred, nil)
		if err != nil {
			return nil, &core.ConfigError{Field: "storage.endpoint", Reason: err.Error()}
		}
	}

	return &AzureStore{
		client:    client,
		container: cfg.Container,
		prefix:    cfg.Prefix,
		logger:    logger,
	}, nil
}

func serviceURL(cfg config.StorageConfig) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/"
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account)
}

func (s *AzureStore) Name() string {
	return "azure:" + s.container
}

func (s *AzureStore) List(ctx context.Context) ([]core.ObjectRef, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if s.prefix != "" {
		opts.Prefix = &s.prefix
	}

	var refs []core.ObjectRef
	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	pages := 0
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &core.ConnectivityError{Op: "list " + s.container, Err: err}
		}
		pages++

		if resp.Segment == nil {
			continue
		}
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			ref := core.ObjectRef{Name: *item.Name}
			if p := item.Properties; p != nil {
				if p.LastModified != nil {
					ref.LastModified = p.LastModified.UTC()
				}
				if p.ContentLength != nil {
					ref.Size = *p.ContentLength
				}
			}
			refs = append(refs, ref)
		}
	}

	s.logger.Debug("msg", "Listed container",
		"component", "azure_store",
		"container", s.container,
		"pages", pages,
		"objects", len(refs))

	return refs, nil
}

func (s *AzureStore) Open(ctx context.Context, ref core.ObjectRef) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, ref.Name, nil)
	if err != nil {
		return nil, &core.ConnectivityError{Op: "download " + ref.Name, Err: err}
	}
	return resp.Body, nil
}

func (s *AzureStore) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	maxResults := int32(1)
	opts := &azblob.ListBlobsFlatOptions{MaxResults: &maxResults}
	if s.prefix != "" {
		opts.Prefix = &s.prefix
	}

	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	if _, err := pager.NextPage(ctx); err != nil {
		return &core.ConnectivityError{Op: "probe " + s.container, Err: err}
	}
	return nil
}
