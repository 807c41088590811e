package services

// Backend resource paths. The backend names its endpoints by action.
const (
	pathProducts           = "get-products"
	pathSearchProducts     = "search-products"
	pathProduct            = "get-product"
	pathProductsByTags     = "get-products-by-tags"
	pathProductsBySupplier = "get-products-by-suppliers"
	pathProductsByCategory = "get-products-by-category"
	pathCreateProduct      = "create-product"
	pathUpdateProduct      = "update-product"
	pathDeleteProduct      = "delete-product"
	pathActivateProduct    = "active-product"
	pathDeactivateProduct  = "unactive-product"

	pathVariants       = "get-product-variants"
	pathSearchVariants = "search-product-variants"

	pathExpenses      = "get-expenses"
	pathSearchExpense = "search-expenses"
	pathCreateExpense = "create-expense"
	pathUpdateExpense = "update-expense"
	pathDeleteExpense = "delete-expense"

	pathTags = "get-tags"

	pathLogin  = "login"
	pathSignup = "signup"
	pathLogout = "logout"
	pathMe     = "me"

	pathUpload = "upload"

	// query parameter names
	paramSearch      = "search"
	paramTagIDs      = "tagIds"
	paramSupplierIDs = "supplierIds"
	paramCategoryID  = "categoryId"
)
