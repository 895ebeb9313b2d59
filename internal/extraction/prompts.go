package extraction

import "fmt"

// outputContract is appended to both instructions so every engine returns the same shape
const outputContract = `Return ONLY valid JSON in this exact format:
{
  "amount": 0.00,
  "category": "Category",
  "description": "What was purchased",
  "paymentMethod": "Cash"
}

Important:
- The amount must be a number (not a string) without currency symbols
- The category must be copied exactly from the list above
- Payment method should be one of: Cash, Credit Card, Debit Card, Digital Wallet
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// UtteranceInstructions returns the system instructions for spoken expenses
func UtteranceInstructions(categories CategorySet) string {
	return fmt.Sprintf(`You are a financial assistant helping users track their expenses.
Extract expense information from natural language descriptions.
Categorize expenses into: %s.
If payment method is not mentioned, default to Cash.

%s`, categories, outputContract)
}

// ReceiptInstructions returns the system instructions for receipt OCR text
func ReceiptInstructions(categories CategorySet) string {
	return fmt.Sprintf(`You are a receipt parser extracting expense information from OCR text.
Find the total amount, merchant name, and categorize the purchase.
Categories: %s
If payment method is not printed on the receipt, default to Cash.

%s`, categories, outputContract)
}

func instructionsFor(mode Mode, categories CategorySet) string {
	if mode == ModeReceipt {
		return ReceiptInstructions(categories)
	}
	return UtteranceInstructions(categories)
}

func promptFor(mode Mode, text string) string {
	if mode == ModeReceipt {
		return "Extract expense from receipt: " + text
	}
	return "Extract expense details: " + text
}
