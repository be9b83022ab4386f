// Package azblobstore implements an Azure Blob Storage object store.
package azblobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/discochess/blobkeep/objectstore"
)

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store is an Azure Blob Storage object store bound to one container.
type Store struct {
	client *container.Client
	name   string
}

// New wraps an existing container client.
func New(client *container.Client, containerName string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: container client is required", objectstore.ErrInvalidConfig)
	}
	if containerName == "" {
		return nil, fmt.Errorf("%w: container name is required", objectstore.ErrInvalidConfig)
	}
	return &Store{client: client, name: containerName}, nil
}

// NewFromConnectionString creates a store from a storage account
// connection string.
func NewFromConnectionString(connStr, containerName string, opts *container.ClientOptions) (*Store, error) {
	if connStr == "" {
		return nil, fmt.Errorf("%w: connection string is required", objectstore.ErrInvalidConfig)
	}
	client, err := container.NewClientFromConnectionString(connStr, containerName, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing connection string: %w", objectstore.ErrInvalidConfig, err)
	}
	return New(client, containerName)
}

// NewWithSharedKey creates a store for the container at
// <serviceURL>/<containerName> authenticated with an account key.
func NewWithSharedKey(serviceURL, accountName, accountKey, containerName string, opts *container.ClientOptions) (*Store, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("%w: shared key: %w", objectstore.ErrInvalidConfig, err)
	}
	client, err := container.NewClientWithSharedKeyCredential(containerURL(serviceURL, containerName), cred, opts)
	if err != nil {
		return nil, fmt.Errorf("creating container client: %w", err)
	}
	return New(client, containerName)
}

// NewAnonymous creates a store that sends unauthenticated requests, for
// SAS URLs and local emulators.
func NewAnonymous(serviceURL, containerName string, opts *container.ClientOptions) (*Store, error) {
	client, err := container.NewClientWithNoCredential(containerURL(serviceURL, containerName), opts)
	if err != nil {
		return nil, fmt.Errorf("creating container client: %w", err)
	}
	return New(client, containerName)
}

func containerURL(serviceURL, containerName string) string {
	return strings.TrimSuffix(serviceURL, "/") + "/" + containerName
}

// Name returns the container name.
func (s *Store) Name() string {
	return s.name
}

// Upload writes the object as a block blob.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	if _, err := s.client.NewBlockBlobClient(name).UploadBuffer(ctx, data, nil); err != nil {
		return classify("uploading blob", err)
	}
	return nil
}

// Download opens a stream over the blob.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, classify("downloading blob", err)
	}
	return resp.Body, nil
}

// Exists probes the blob's properties.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.NewBlobClient(name).GetProperties(ctx, nil)
	if err != nil {
		err = classify("probing blob", err)
		if errors.Is(err, objectstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteIfExists deletes the blob and its snapshots.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	_, err := s.client.NewBlobClient(name).Delete(ctx, &blob.DeleteOptions{
		DeleteSnapshots: to.Ptr(blob.DeleteSnapshotsOptionTypeInclude),
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return classify("deleting blob", err)
	}
	return nil
}

// List yields blob names under prefix in lexical order, one page at a time.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var opts container.ListBlobsFlatOptions
		if prefix != "" {
			opts.Prefix = to.Ptr(prefix)
		}

		pager := s.client.NewListBlobsFlatPager(&opts)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield("", classify("listing blobs", err))
				return
			}
			if page.Segment == nil {
				continue
			}
			for _, item := range page.Segment.BlobItems {
				if item == nil || item.Name == nil {
					continue
				}
				if !yield(*item.Name, nil) {
					return
				}
			}
		}
	}
}

// ContainerProperties checks that the container exists.
func (s *Store) ContainerProperties(ctx context.Context) error {
	if _, err := s.client.GetProperties(ctx, nil); err != nil {
		return classify("probing container", err)
	}
	return nil
}

// CreateContainer creates the container.
func (s *Store) CreateContainer(ctx context.Context) error {
	_, err := s.client.Create(ctx, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return classify("creating container", err)
	}
	return nil
}

// Close releases resources. The container client holds none.
func (s *Store) Close() error {
	return nil
}

// classify wraps err with the objectstore sentinel matching its service
// error code or HTTP status.
func classify(action string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
		return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrForbidden, err)
		}
	}

	return fmt.Errorf("%s: %w", action, err)
}
