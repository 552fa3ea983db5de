// Package pagination implements the page-by-page loading state of a list.
//
// A List keeps the items merged so far, the number of pages loaded, an
// optional total page bound and a fetch lock. Pages are loaded through a
// caller-supplied FetchFunc; the package itself performs no I/O.
//
// Example usage:
//
//	list, err := pagination.New(pagination.Config[Order]{
//		Name:     "orders",
//		PageSize: 20,
//		Fetch: func(ctx context.Context, req pagination.FetchRequest) (pagination.Result[Order], error) {
//			orders, pages, err := store.Orders(ctx, req.PageNumber, req.PageSize)
//			if err != nil {
//				return pagination.Result[Order]{}, err
//			}
//			return pagination.Items(orders).WithTotalPages(pages), nil
//		},
//	})
//	if err != nil {
//		return err
//	}
//	if err := list.AdvanceToNextPage(ctx); err != nil {
//		return err
//	}
//	state := list.State() // {items, totalPage, hasMore, currentPage}
//
// The list:
//   - Skips the fetch entirely once CurrentPage reaches a known total
//   - Holds the fetch lock for exactly one callback and always releases it
//   - Appends a page only after a successful fetch
//   - Returns callback errors unchanged
//
// The lock is advisory for AdvanceToNextPage; TryAdvance and TryRefresh
// acquire it atomically and are what the listpage registry uses.
package pagination
