// Package console implements the operator-facing text menu. It collects
// fields from stdin and calls the services directly; it carries no business
// rules of its own.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/service"
)

type Console struct {
	in              *bufio.Reader
	out             io.Writer
	customerService service.CustomerService
	accountService  service.AccountService
	ledgerService   service.LedgerService
}

func New(in io.Reader, out io.Writer, customerService service.CustomerService, accountService service.AccountService, ledgerService service.LedgerService) *Console {
	return &Console{
		in:              bufio.NewReader(in),
		out:             out,
		customerService: customerService,
		accountService:  accountService,
		ledgerService:   ledgerService,
	}
}

func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "========================================")
	fmt.Fprintln(c.out, "   BANK MANAGEMENT SYSTEM")
	fmt.Fprintln(c.out, "========================================")

	for {
		c.printMenu()
		choice, err := c.readLine("Enter your choice: ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var opErr error
		switch choice {
		case "1":
			opErr = c.registerCustomer(ctx)
		case "2":
			opErr = c.createAccount(ctx)
		case "3":
			opErr = c.deposit(ctx)
		case "4":
			opErr = c.withdraw(ctx)
		case "5":
			opErr = c.transfer(ctx)
		case "6":
			opErr = c.viewBalance(ctx)
		case "7":
			opErr = c.viewHistory(ctx)
		case "8":
			opErr = c.viewCustomer(ctx)
		case "9":
			opErr = c.viewAllCustomers(ctx)
		case "10":
			opErr = c.viewCustomerAccounts(ctx)
		case "0":
			fmt.Fprintln(c.out, "\nThank you for using Bank Management System!")
			return nil
		default:
			fmt.Fprintln(c.out, "\nInvalid choice! Please try again.")
		}

		if opErr != nil {
			if opErr == io.EOF {
				return nil
			}
			c.printError(opErr)
		}
	}
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.out, "\n========== MAIN MENU ==========")
	fmt.Fprintln(c.out, "1.  Register New Customer")
	fmt.Fprintln(c.out, "2.  Create New Account")
	fmt.Fprintln(c.out, "3.  Deposit Money")
	fmt.Fprintln(c.out, "4.  Withdraw Money")
	fmt.Fprintln(c.out, "5.  Transfer Money")
	fmt.Fprintln(c.out, "6.  View Account Balance")
	fmt.Fprintln(c.out, "7.  View Transaction History")
	fmt.Fprintln(c.out, "8.  View Customer Details")
	fmt.Fprintln(c.out, "9.  View All Customers")
	fmt.Fprintln(c.out, "10. View Customer Accounts")
	fmt.Fprintln(c.out, "0.  Exit")
	fmt.Fprintln(c.out, "===============================")
}

// printError keeps the operator-facing distinction between business failures
// and store failures: the latter may succeed on retry.
func (c *Console) printError(err error) {
	if errors.IsStoreError(err) {
		fmt.Fprintf(c.out, "\nStorage Error: %v\n", err)
		if errors.IsRetryable(err) {
			fmt.Fprintln(c.out, "The operation was not applied; please try again.")
		}
		return
	}
	fmt.Fprintf(c.out, "\nError: %v\n", err)
}

func (c *Console) registerCustomer(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Register New Customer ---")

	req := &models.RegisterCustomerRequest{}
	var err error
	if req.FirstName, err = c.readLine("First Name: "); err != nil {
		return err
	}
	if req.LastName, err = c.readLine("Last Name: "); err != nil {
		return err
	}
	if req.Email, err = c.readLine("Email: "); err != nil {
		return err
	}
	if req.Phone, err = c.readLine("Phone: "); err != nil {
		return err
	}
	if req.Address, err = c.readLine("Address: "); err != nil {
		return err
	}
	if req.DateOfBirth, err = c.readLine("Date of Birth (YYYY-MM-DD): "); err != nil {
		return err
	}

	customer, err := c.customerService.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nCustomer registered successfully! Customer ID: %s\n", customer.ID)
	return nil
}

func (c *Console) createAccount(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Create New Account ---")

	req := &models.CreateAccountRequest{}
	var err error
	if req.CustomerID, err = c.readLine("Customer ID: "); err != nil {
		return err
	}
	if req.AccountNumber, err = c.readLine("Account Number: "); err != nil {
		return err
	}
	accountType, err := c.readLine("Account Type (SAVINGS/CURRENT/FIXED_DEPOSIT): ")
	if err != nil {
		return err
	}
	req.AccountType = models.AccountType(strings.ToUpper(accountType))

	account, err := c.accountService.CreateAccount(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nAccount created successfully! Account ID: %s\n", account.ID)
	return nil
}

func (c *Console) deposit(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Deposit Money ---")

	account, err := c.readAccountByNumber(ctx)
	if err != nil {
		return err
	}
	amount, err := c.readAmount()
	if err != nil {
		return err
	}
	description, err := c.readLine("Description (optional): ")
	if err != nil {
		return err
	}

	transaction, err := c.ledgerService.Deposit(ctx, account.ID, amount, description)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nDeposit successful! New balance: %s\n", transaction.BalanceAfter.String())
	return nil
}

func (c *Console) withdraw(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Withdraw Money ---")

	account, err := c.readAccountByNumber(ctx)
	if err != nil {
		return err
	}
	amount, err := c.readAmount()
	if err != nil {
		return err
	}
	description, err := c.readLine("Description (optional): ")
	if err != nil {
		return err
	}

	transaction, err := c.ledgerService.Withdraw(ctx, account.ID, amount, description)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nWithdrawal successful! New balance: %s\n", transaction.BalanceAfter.String())
	return nil
}

func (c *Console) transfer(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Transfer Money ---")

	fromNumber, err := c.readLine("From Account Number: ")
	if err != nil {
		return err
	}
	from, err := c.accountService.GetAccountByNumber(ctx, fromNumber)
	if err != nil {
		return err
	}

	toNumber, err := c.readLine("To Account Number: ")
	if err != nil {
		return err
	}
	to, err := c.accountService.GetAccountByNumber(ctx, toNumber)
	if err != nil {
		return err
	}

	amount, err := c.readAmount()
	if err != nil {
		return err
	}
	description, err := c.readLine("Description (optional): ")
	if err != nil {
		return err
	}

	if _, err := c.ledgerService.Transfer(ctx, from.ID, to.ID, amount, description); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\nTransfer successful!")
	return nil
}

func (c *Console) viewBalance(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- View Account Balance ---")

	account, err := c.readAccountByNumber(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\nAccount Number: %s\n", account.AccountNumber)
	fmt.Fprintf(c.out, "Account Type:   %s\n", account.AccountType)
	fmt.Fprintf(c.out, "Status:         %s\n", account.Status)
	fmt.Fprintf(c.out, "Balance:        %s\n", account.Balance.String())
	return nil
}

func (c *Console) viewHistory(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Transaction History ---")

	account, err := c.readAccountByNumber(ctx)
	if err != nil {
		return err
	}

	rawLimit, err := c.readLine("Number of transactions (blank for all): ")
	if err != nil {
		return err
	}

	var transactions []*models.Transaction
	if rawLimit == "" {
		transactions, err = c.ledgerService.TransactionHistory(ctx, account.ID)
	} else {
		limit, parseErr := strconv.Atoi(rawLimit)
		if parseErr != nil {
			fmt.Fprintln(c.out, "\nInvalid number!")
			return nil
		}
		transactions, err = c.ledgerService.RecentTransactions(ctx, account.ID, limit)
	}
	if err != nil {
		return err
	}

	if len(transactions) == 0 {
		fmt.Fprintln(c.out, "\nNo transactions found.")
		return nil
	}

	fmt.Fprintf(c.out, "\n%-14s %-12s %-12s %-20s %s\n", "TYPE", "AMOUNT", "BALANCE", "DATE", "DESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(c.out, "%-14s %-12s %-12s %-20s %s\n",
			t.Type,
			t.Amount.String(),
			t.BalanceAfter.String(),
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			t.Description,
		)
	}
	return nil
}

func (c *Console) viewCustomer(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- View Customer Details ---")

	id, err := c.readLine("Customer ID: ")
	if err != nil {
		return err
	}
	customer, err := c.customerService.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	c.printCustomer(customer)
	return nil
}

func (c *Console) viewAllCustomers(ctx context.Context) error {
	customers, err := c.customerService.ListCustomers(ctx)
	if err != nil {
		return err
	}

	if len(customers) == 0 {
		fmt.Fprintln(c.out, "\nNo customers registered.")
		return nil
	}
	fmt.Fprintf(c.out, "\n--- All Customers (%d) ---\n", len(customers))
	for _, customer := range customers {
		c.printCustomer(customer)
	}
	return nil
}

func (c *Console) viewCustomerAccounts(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- View Customer Accounts ---")

	id, err := c.readLine("Customer ID: ")
	if err != nil {
		return err
	}
	accounts, err := c.accountService.GetCustomerAccounts(ctx, id)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Fprintln(c.out, "\nNo accounts found for this customer.")
		return nil
	}
	fmt.Fprintf(c.out, "\n%-16s %-14s %-10s %s\n", "NUMBER", "TYPE", "STATUS", "BALANCE")
	for _, account := range accounts {
		fmt.Fprintf(c.out, "%-16s %-14s %-10s %s\n",
			account.AccountNumber,
			account.AccountType,
			account.Status,
			account.Balance.String(),
		)
	}
	return nil
}

func (c *Console) printCustomer(customer *models.Customer) {
	fmt.Fprintf(c.out, "\nCustomer ID:   %s\n", customer.ID)
	fmt.Fprintf(c.out, "Name:          %s %s\n", customer.FirstName, customer.LastName)
	fmt.Fprintf(c.out, "Email:         %s\n", customer.Email)
	fmt.Fprintf(c.out, "Phone:         %s\n", customer.Phone)
	fmt.Fprintf(c.out, "Address:       %s\n", customer.Address)
	fmt.Fprintf(c.out, "Date of Birth: %s\n", customer.DateOfBirth.Format("2006-01-02"))
}

func (c *Console) readAccountByNumber(ctx context.Context) (*models.Account, error) {
	number, err := c.readLine("Account Number: ")
	if err != nil {
		return nil, err
	}
	return c.accountService.GetAccountByNumber(ctx, number)
}

func (c *Console) readAmount() (decimal.Decimal, error) {
	raw, err := c.readLine("Amount: ")
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewInvalidAmount(raw)
	}
	return amount, nil
}

func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
